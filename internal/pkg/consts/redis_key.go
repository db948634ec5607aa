package consts

const (
	GrowthTopKKey   = "growth:topk:"
	GrowthWindowKey = "growth:window:"
	QuotaStateKey   = "quota:state"
	SnapshotLock    = "lock:snapshot:daily:"
	TokenRevokedKey = "token:revoked:"
)
