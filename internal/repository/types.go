package repository

// PostListFilter 查询文章列表的过滤条件
type PostListFilter struct {
	Page       int
	PageSize   int
	Status     string
	AuthorID   uint
	CategoryID uint
	TagID      uint
	Search     string
	OrderBy    string
}

// NotificationListFilter 查询通知列表的过滤条件
type NotificationListFilter struct {
	Page        int
	PageSize    int
	RecipientID uint
	Type        string
	UnreadOnly  bool
}
