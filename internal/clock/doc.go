// Package clock reports the current time in IANA time zones.
//
// Unknown zone names fail with an *InvalidTimezoneError. The binary embeds
// the tz database (time/tzdata), so lookups do not depend on the host.
package clock
