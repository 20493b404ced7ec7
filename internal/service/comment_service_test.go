package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/wenji-next/internal/constants"
)

func TestCommentLevelAndPath(t *testing.T) {
	env := newTestEnv(t, "comment_level_path")
	author := env.createUser(t, "author", false)
	reader := env.createUser(t, "reader", false)
	category := env.createCategory(t, "技术")
	post := env.createPost(t, author, category, "层级测试")

	top, err := env.comments.Create(Actor{ID: reader.ID}, CreateCommentInput{
		PostID: post.ID, Content: "顶层",
	})
	if err != nil {
		t.Fatalf("create top comment failed: %v", err)
	}
	if top.Level != 1 || top.Path != "" {
		t.Fatalf("unexpected top comment: level=%d path=%q", top.Level, top.Path)
	}

	reply, err := env.comments.Create(Actor{ID: author.ID}, CreateCommentInput{
		PostID: post.ID, Content: "一级回复", ParentID: &top.ID,
	})
	if err != nil {
		t.Fatalf("create reply failed: %v", err)
	}
	if reply.Level != 2 || reply.Path != fmt.Sprintf("%d", top.ID) {
		t.Fatalf("unexpected reply: level=%d path=%q", reply.Level, reply.Path)
	}

	deep, err := env.comments.Create(Actor{ID: reader.ID}, CreateCommentInput{
		PostID: post.ID, Content: "二级回复", ParentID: &reply.ID,
	})
	if err != nil {
		t.Fatalf("create deep reply failed: %v", err)
	}
	if deep.Level != 3 || deep.Path != fmt.Sprintf("%d/%d", top.ID, reply.ID) {
		t.Fatalf("unexpected deep reply: level=%d path=%q", deep.Level, deep.Path)
	}
}

func TestCommentParentMustBelongToSamePost(t *testing.T) {
	env := newTestEnv(t, "comment_parent_mismatch")
	author := env.createUser(t, "author", false)
	category := env.createCategory(t, "技术")
	postA := env.createPost(t, author, category, "文章甲")
	postB := env.createPost(t, author, category, "文章乙")

	parent, err := env.comments.Create(Actor{ID: author.ID}, CreateCommentInput{
		PostID: postA.ID, Content: "甲的评论",
	})
	if err != nil {
		t.Fatalf("create parent failed: %v", err)
	}

	_, err = env.comments.Create(Actor{ID: author.ID}, CreateCommentInput{
		PostID: postB.ID, Content: "挂错文章", ParentID: &parent.ID,
	})
	if !errors.Is(err, ErrParentMismatch) {
		t.Fatalf("expected ErrParentMismatch, got %v", err)
	}
}

func TestCommentCountAcrossCreateDeleteModerate(t *testing.T) {
	env := newTestEnv(t, "comment_count_ledger")
	author := env.createUser(t, "author", false)
	reader := env.createUser(t, "reader", false)
	admin := env.createUser(t, "admin", true)
	category := env.createCategory(t, "技术")
	post := env.createPost(t, author, category, "计数测试")

	actor := Actor{ID: reader.ID}
	first, err := env.comments.Create(actor, CreateCommentInput{PostID: post.ID, Content: "一"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := env.comments.Create(actor, CreateCommentInput{PostID: post.ID, Content: "二"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if got := env.loadPost(t, post.ID).CommentCount; got != 2 {
		t.Fatalf("expected count 2, got %d", got)
	}

	adminActor := Actor{ID: admin.ID, IsAdmin: true}

	// 驳回计数 -1，重复驳回不再动计数（幂等）
	if _, err := env.comments.Moderate(first.ID, adminActor, false); err != nil {
		t.Fatalf("moderate failed: %v", err)
	}
	if got := env.loadPost(t, post.ID).CommentCount; got != 1 {
		t.Fatalf("expected count 1 after reject, got %d", got)
	}
	if _, err := env.comments.Moderate(first.ID, adminActor, false); err != nil {
		t.Fatalf("repeated moderate failed: %v", err)
	}
	if got := env.loadPost(t, post.ID).CommentCount; got != 1 {
		t.Fatalf("expected moderate to be idempotent, got %d", got)
	}

	// 重新过审 +1
	if _, err := env.comments.Moderate(first.ID, adminActor, true); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if got := env.loadPost(t, post.ID).CommentCount; got != 2 {
		t.Fatalf("expected count 2 after approve, got %d", got)
	}

	// 软删除 -1，重复删除为空操作
	if err := env.comments.Delete(second.ID, actor); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := env.comments.Delete(second.ID, actor); err != nil {
		t.Fatalf("repeated delete should be no-op, got %v", err)
	}
	if got := env.loadPost(t, post.ID).CommentCount; got != 1 {
		t.Fatalf("expected count 1 after delete, got %d", got)
	}

	// 已删除的评论再驳回/过审只改标记，不动计数
	if _, err := env.comments.Moderate(second.ID, adminActor, false); err != nil {
		t.Fatalf("moderate deleted failed: %v", err)
	}
	if got := env.loadPost(t, post.ID).CommentCount; got != 1 {
		t.Fatalf("expected count unchanged for deleted comment, got %d", got)
	}
}

func TestDeletedParentKeepsRepliesVisible(t *testing.T) {
	env := newTestEnv(t, "comment_deleted_parent")
	author := env.createUser(t, "author", false)
	reader := env.createUser(t, "reader", false)
	category := env.createCategory(t, "技术")
	post := env.createPost(t, author, category, "结构保持")

	a, err := env.comments.Create(Actor{ID: reader.ID}, CreateCommentInput{PostID: post.ID, Content: "A"})
	if err != nil {
		t.Fatalf("create A failed: %v", err)
	}
	b, err := env.comments.Create(Actor{ID: author.ID}, CreateCommentInput{
		PostID: post.ID, Content: "B", ParentID: &a.ID,
	})
	if err != nil {
		t.Fatalf("create B failed: %v", err)
	}

	if err := env.comments.Delete(a.ID, Actor{ID: reader.ID}); err != nil {
		t.Fatalf("delete A failed: %v", err)
	}

	// 列表不再出现 A
	threads, _, err := env.comments.ListByPost(post.ID, 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, thread := range threads {
		if thread.ID == a.ID {
			t.Fatalf("expected deleted comment excluded from list")
		}
	}

	// 但 A 的回复依然可见，level/path 不变
	replies, err := env.comments.ListReplies(a.ID)
	if err != nil {
		t.Fatalf("list replies failed: %v", err)
	}
	if len(replies) != 1 || replies[0].ID != b.ID {
		t.Fatalf("expected reply B visible, got %+v", replies)
	}
	if replies[0].Level != 2 || replies[0].Path != fmt.Sprintf("%d", a.ID) {
		t.Fatalf("expected structure unchanged, got level=%d path=%q", replies[0].Level, replies[0].Path)
	}
}

func TestDeletedCommentHiddenFromUserList(t *testing.T) {
	env := newTestEnv(t, "comment_user_list")
	author := env.createUser(t, "author", false)
	reader := env.createUser(t, "reader", false)
	category := env.createCategory(t, "技术")
	post := env.createPost(t, author, category, "个人评论页")

	kept, err := env.comments.Create(Actor{ID: reader.ID}, CreateCommentInput{PostID: post.ID, Content: "留着"})
	if err != nil {
		t.Fatalf("create kept comment failed: %v", err)
	}
	gone, err := env.comments.Create(Actor{ID: reader.ID}, CreateCommentInput{PostID: post.ID, Content: "删我"})
	if err != nil {
		t.Fatalf("create doomed comment failed: %v", err)
	}
	if err := env.comments.Delete(gone.ID, Actor{ID: reader.ID}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	comments, total, err := env.comments.ListByUser(reader.ID, 1, 10)
	if err != nil {
		t.Fatalf("list by user failed: %v", err)
	}
	if total != 1 || len(comments) != 1 || comments[0].ID != kept.ID {
		t.Fatalf("expected only the surviving comment, got total=%d items=%+v", total, comments)
	}
}

func TestCommentLikeTwiceIsNoOp(t *testing.T) {
	env := newTestEnv(t, "comment_like_noop")
	author := env.createUser(t, "author", false)
	reader := env.createUser(t, "reader", false)
	category := env.createCategory(t, "技术")
	post := env.createPost(t, author, category, "评论点赞")

	comment, err := env.comments.Create(Actor{ID: author.ID}, CreateCommentInput{
		PostID: post.ID, Content: "被点赞",
	})
	if err != nil {
		t.Fatalf("create comment failed: %v", err)
	}

	actor := Actor{ID: reader.ID}
	liked, err := env.comments.Like(comment.ID, actor)
	if err != nil {
		t.Fatalf("first like failed: %v", err)
	}
	if liked.LikeCount != 1 {
		t.Fatalf("expected like count 1, got %d", liked.LikeCount)
	}

	// 与文章点赞不同：重复点赞不报错，原样返回
	again, err := env.comments.Like(comment.ID, actor)
	if err != nil {
		t.Fatalf("second like should be no-op, got %v", err)
	}
	if again.LikeCount != 1 {
		t.Fatalf("expected like count still 1, got %d", again.LikeCount)
	}

	if _, err := env.comments.Unlike(comment.ID, actor); err != nil {
		t.Fatalf("unlike failed: %v", err)
	}
	after, err := env.comments.Unlike(comment.ID, actor)
	if err != nil {
		t.Fatalf("repeated unlike should be no-op, got %v", err)
	}
	if after.LikeCount != 0 {
		t.Fatalf("expected like count 0, got %d", after.LikeCount)
	}
}

func TestCommentEventsAndEditFlag(t *testing.T) {
	env := newTestEnv(t, "comment_events")
	author := env.createUser(t, "author", false)
	reader := env.createUser(t, "reader", false)
	category := env.createCategory(t, "技术")
	post := env.createPost(t, author, category, "事件测试")

	// 别人评论 → comment 事件发给文章作者
	top, err := env.comments.Create(Actor{ID: reader.ID}, CreateCommentInput{
		PostID: post.ID, Content: "评论",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(env.notifier.events) != 1 || env.notifier.events[0].Type != constants.NotificationTypeComment ||
		env.notifier.events[0].RecipientID != author.ID {
		t.Fatalf("unexpected events: %+v", env.notifier.events)
	}

	// 作者回复 → reply 事件发给评论作者
	if _, err := env.comments.Create(Actor{ID: author.ID}, CreateCommentInput{
		PostID: post.ID, Content: "回复", ParentID: &top.ID,
	}); err != nil {
		t.Fatalf("create reply failed: %v", err)
	}
	last := env.notifier.events[len(env.notifier.events)-1]
	if last.Type != constants.NotificationTypeReply || last.RecipientID != reader.ID {
		t.Fatalf("unexpected reply event: %+v", last)
	}

	// 自己评论自己的文章不产生事件
	before := len(env.notifier.events)
	if _, err := env.comments.Create(Actor{ID: author.ID}, CreateCommentInput{
		PostID: post.ID, Content: "自评",
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(env.notifier.events) != before {
		t.Fatalf("expected no event for own comment")
	}

	// 编辑只允许作者，成功后带 isEdited 标记
	if _, err := env.comments.Update(top.ID, Actor{ID: author.ID}, "篡改"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	updated, err := env.comments.Update(top.ID, Actor{ID: reader.ID}, "编辑过")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.IsEdited || updated.Content != "编辑过" {
		t.Fatalf("unexpected updated comment: %+v", updated)
	}
}

func TestListByPostOrderingAndPreview(t *testing.T) {
	env := newTestEnv(t, "comment_list_order")
	author := env.createUser(t, "author", false)
	admin := env.createUser(t, "admin", true)
	category := env.createCategory(t, "技术")
	post := env.createPost(t, author, category, "排序测试")

	actor := Actor{ID: author.ID}
	first, err := env.comments.Create(actor, CreateCommentInput{PostID: post.ID, Content: "先来"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := env.comments.Create(actor, CreateCommentInput{PostID: post.ID, Content: "后到"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// 给第一条挂 4 条回复，预览只取前 3 条
	for i := 0; i < 4; i++ {
		if _, err := env.comments.Create(actor, CreateCommentInput{
			PostID: post.ID, Content: fmt.Sprintf("回复%d", i), ParentID: &first.ID,
		}); err != nil {
			t.Fatalf("create reply failed: %v", err)
		}
	}

	// 精选置前
	if _, err := env.comments.Highlight(first.ID, Actor{ID: admin.ID, IsAdmin: true}, true); err != nil {
		t.Fatalf("highlight failed: %v", err)
	}

	threads, total, err := env.comments.ListByPost(post.ID, 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(threads) != 2 {
		t.Fatalf("expected 2 top comments, got total=%d len=%d", total, len(threads))
	}
	if threads[0].ID != first.ID || threads[1].ID != second.ID {
		t.Fatalf("expected highlighted first, got %d then %d", threads[0].ID, threads[1].ID)
	}
	if len(threads[0].Replies) != 3 || threads[0].ReplyCount != 4 {
		t.Fatalf("expected 3-reply preview of 4, got %d of %d", len(threads[0].Replies), threads[0].ReplyCount)
	}
}
