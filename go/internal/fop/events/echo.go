package events

// echoIgnored lists the kinds a console has already applied locally before
// posting. When such a notification comes back carrying the console's own
// origin it must not be applied a second time.
var echoIgnored = map[Kind]bool{
	KindTimeStarted:     true,
	KindTimeStopped:     true,
	KindForceTime:       true,
	KindBreakStarted:    true,
	KindBreakPaused:     true,
	KindCeremonyStarted: true,
	KindCeremonyDone:    true,
}

// ShouldApply decides whether the subscriber identified by self should act on n.
// Notifications from other origins are always applied, as are kinds whose
// outcome is computed by the field of play (lifting order, break end, denials).
func ShouldApply(n Notification, self Origin) bool {
	if n.Private() && n.Recipient != self {
		return false
	}
	if self == "" || n.Origin != self {
		return true
	}
	return !echoIgnored[n.Kind]
}
