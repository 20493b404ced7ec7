package constants

// 用户角色常量
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 文章状态常量
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusScheduled = "scheduled"
)

// 通知类型常量
const (
	NotificationTypeFollow      = "follow"
	NotificationTypeComment     = "comment"
	NotificationTypeReply       = "reply"
	NotificationTypeLikePost    = "like_post"
	NotificationTypeLikeComment = "like_comment"
	NotificationTypeSystem      = "system"
)

// 异步任务名称常量
const (
	TaskNotificationDispatch  = "notification:dispatch"
	TaskNotificationBroadcast = "notification:broadcast"
	TaskPostSweepScheduled    = "post:sweep_scheduled"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 摘要截断长度（字符数）
const PostSummaryLength = 150

// 评论列表回复预览条数
const CommentReplyPreviewLimit = 3

// 分类父链遍历上限，超过视为数据异常
const CategoryAncestorWalkLimit = 100

// 系统广播批量写入批次大小
const BroadcastInsertBatchSize = 500
