package hwtimer

// Sample is one reading of the down-counter paired with the overflow
// count at the time of the read. A single sample carries no absolute
// time; only two samples combined by Elapsed yield a duration.
type Sample struct {
	Value     uint32
	Overflows uint32
}

// Elapsed combines two samples into a 64-bit elapsed-tick count.
//
// Within one period the counter strictly decreases, so end.Value above
// start.Value means the counter wrapped exactly once more than the
// overflow count shows - the reload interrupt had not run yet when the
// end sample was taken. That branch credits the one extra full period,
// which resolves the read/interrupt race without an atomic combined
// read of (value, overflows).
//
// Elapsed is pure and total. The overflow difference itself wraps for
// sessions beyond 2^32 full periods; callers reporting 32-bit results
// must saturate, not truncate.
func Elapsed(start, end Sample) uint64 {
	wraps := uint64(end.Overflows - start.Overflows)
	base := wraps << 32
	if start.Value >= end.Value {
		return base + uint64(start.Value-end.Value)
	}
	return base + uint64(CounterMax-end.Value) + uint64(start.Value) + 1
}
