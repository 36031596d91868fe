package program

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "program")
