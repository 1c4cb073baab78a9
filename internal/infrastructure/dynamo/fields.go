package dynamo

// DynamoDB attribute names used in key and update expressions across repos.
const (
	fieldUserID    = "user_id"
	fieldEmail     = "email"
	fieldStatus    = "status"
	fieldUpdatedAt = "updated_at"

	fieldSessionID   = "session_id"
	fieldFingerprint = "fingerprint"
	fieldLoginTime   = "login_time"
	fieldLastActive  = "last_active"
	fieldIPAddress   = "ip_address"
	fieldLocation    = "location"

	fieldActivityID = "activity_id"
	fieldTimestamp  = "timestamp"

	fieldContactID     = "contact_id"
	fieldKind          = "kind"
	fieldCreatedAt     = "created_at"
	fieldTagID         = "tag_id"
	fieldTransactionID = "transaction_id"
	fieldType          = "type"
	fieldDate          = "date"

	fieldClaim   = "claim"
	fieldOwnerID = "owner_id"
)

const (
	indexUserLoginTime = "user_id-login_time-index"
	indexUserTimestamp = "user_id-timestamp-index"
	indexUserCreatedAt = "user_id-created_at-index"
	indexUserDate      = "user_id-date-index"
)
