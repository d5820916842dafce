package constants

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "CLINICA"

	AppName = "clinica"

	// PractitionerUser is the only user of a single-tenant deployment.
	PractitionerUser = "practitioner"

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
