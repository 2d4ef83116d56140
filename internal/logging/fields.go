package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// SourceFields 提供 run/source/url 字段，供每个字体源的处理日志复用。
func SourceFields(runID, source, url string) logrus.Fields {
	return logrus.Fields{
		"run_id": runID,
		"source": source,
		"url":    url,
	}
}
