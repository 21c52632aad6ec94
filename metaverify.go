// Package metaverify fetches a single web page and reports its <title> and
// <meta> tag attributes. It backs a small web form and a CLI used to check how
// a page will be described by search engines and link previews.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., http/, html/, goquery/).
package metaverify
