package analytics

// NoOpTracker is used when analytics is disabled: every record is
// dropped and every listing is empty.
type NoOpTracker struct{}

func (*NoOpTracker) RecordAccess(string, string)          {}
func (*NoOpTracker) RecordWrite(string, string)           {}
func (*NoOpTracker) Forget(...string)                     {}
func (*NoOpTracker) Reset()                               {}
func (*NoOpTracker) HotKeys(int) []KeyStat                { return nil }
func (*NoOpTracker) ColdKeys(int) []string                { return nil }
func (*NoOpTracker) TakeDataTypeWindow() map[string]int64 { return nil }
