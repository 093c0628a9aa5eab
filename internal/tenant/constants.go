package tenant

const (
	LogMsgTenantRegistered = "Tenant registered"
	LogMsgSettingsUpdated  = "Tenant settings updated"
)

const (
	ErrContextFailedToEnsureTenant = "failed to ensure tenant: %w"
	ErrContextFailedToSaveTenant   = "failed to save tenant: %w"
)

// CampaignCodeSeparator splits a comma separated list of campaign codes
const CampaignCodeSeparator = ","
