package service

// Actor 已认证的操作者身份，由外层请求层提供
type Actor struct {
	ID      uint
	IsAdmin bool
}

// Event 领域事件。写操作在主事务提交后显式返回/上抛事件，
// 由 Notifier 异步消费，副作用不再埋在变更路径里。
type Event struct {
	Type        string `json:"type"`         // 与通知类型一致（system 除外）
	ActorID     uint   `json:"actor_id"`     // 触发者
	RecipientID uint   `json:"recipient_id"` // 接收者
	PostID      uint   `json:"post_id"`      // 关联文章，0 表示无
	CommentID   uint   `json:"comment_id"`   // 关联评论，0 表示无
}

// Notifier 事件消费入口。实现必须是尽力而为的：
// 投递失败只记录日志，绝不影响触发它的主操作。
type Notifier interface {
	Notify(events ...Event)
}
