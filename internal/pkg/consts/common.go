package consts

const (
	// MaxContentRunes 帖子正文长度上限（按码点计），超出截断
	MaxContentRunes = 5000
	// TruncationMark 截断标记，追加在被截断的正文末尾
	TruncationMark = "…[truncated]"
	// MaxBatchIDs 外部 API 单次按 ID 批量查询的上限
	MaxBatchIDs = 100
)
