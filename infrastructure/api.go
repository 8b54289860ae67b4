package infrastructure

const (
	MinervaServiceAPISaveResource  = "/save-json"
	MinervaServiceAPIUsageResource = "/"
)

const (
	// Environments served by a default minerva deployment
	DevelopmentEnvironment = "DEV"
	QAEnvironment          = "QA"
)
