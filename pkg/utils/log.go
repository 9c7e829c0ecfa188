package utils

import "github.com/sirupsen/logrus"

// Log is the shared application logger. Its formatter and level are
// configured during bootstrap alongside the standard logger.
var Log = logrus.New()
