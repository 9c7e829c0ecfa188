package bootstrap

import (
	"io"
	"log"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	"github.com/vendo-org/vendo/cmd/flags"
	"github.com/vendo-org/vendo/internal/conf"
	"github.com/vendo-org/vendo/pkg/utils"
)

func init() {
	formatter := logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("VENDO_NO_COLOR") == "1" {
		formatter.DisableColors = true
	} else {
		formatter.ForceColors = true
		formatter.EnvironmentOverrideColors = true
	}
	logrus.SetFormatter(&formatter)
	utils.Log.SetFormatter(&formatter)
}

func setLog(l *logrus.Logger) {
	if flags.Debug {
		l.SetLevel(logrus.DebugLevel)
		l.SetReportCaller(true)
	} else {
		l.SetLevel(logrus.InfoLevel)
		l.SetReportCaller(false)
	}
}

func Log() {
	setLog(logrus.StandardLogger())
	setLog(utils.Log)
	logConfig := conf.Conf.Log
	if logConfig.Enable {
		var w io.Writer = &lumberjack.Logger{
			Filename:   logConfig.Name,
			MaxSize:    logConfig.MaxSize, // megabytes
			MaxBackups: logConfig.MaxBackups,
			MaxAge:     logConfig.MaxAge,   //days
			Compress:   logConfig.Compress, // disabled by default
		}
		if flags.Debug || flags.LogStd {
			w = io.MultiWriter(os.Stdout, w)
		}
		logrus.SetOutput(w)
	}
	log.SetOutput(logrus.StandardLogger().Out)
	utils.Log.Infof("init logrus...")
}
