package setting

import "time"

const (
	CrontabCollectTime = "*/16 5-20 * * *"
	CrontabAlarmTime   = "*/15 6-19 * * *"
)

const (
	AutarcoBaseURL        = "https://my.autarco.com/api/site/"
	AutarcoRequestTimeout = 15 * time.Second
)

const (
	DatabasePath     = "database.db"
	CollectorWorkers = 4
)
