package credit

import "time"

var timeNow = time.Now
