package main

import "time"

// nowUnix is indirected for tests.
var nowUnix = func() int64 { return time.Now().Unix() }
