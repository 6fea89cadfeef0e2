package hwtimer

// Hook for driver tests living outside the package: verification and
// warm-up busy-waits become device steps.
var BusyWaitHook = &busyWait
