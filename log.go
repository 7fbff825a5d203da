package rcmap

import "github.com/sirgallo/logger"

var cLog = logger.NewCustomLog("rcmap")
