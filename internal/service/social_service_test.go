package service

import (
	"errors"
	"testing"

	"github.com/wenji-next/internal/constants"
)

func TestFollowMutualInvariant(t *testing.T) {
	env := newTestEnv(t, "social_mutual")
	a := env.createUser(t, "alice", false)
	b := env.createUser(t, "bob", false)

	if err := env.social.Follow(Actor{ID: a.ID}, b.ID); err != nil {
		t.Fatalf("follow failed: %v", err)
	}

	// b ∈ a.following ⇔ a ∈ b.followers
	following, _, err := env.social.Following(a.ID)
	if err != nil {
		t.Fatalf("following failed: %v", err)
	}
	if len(following) != 1 || following[0].ID != b.ID {
		t.Fatalf("expected a following b, got %+v", following)
	}
	followers, _, err := env.social.Followers(b.ID)
	if err != nil {
		t.Fatalf("followers failed: %v", err)
	}
	if len(followers) != 1 || followers[0].ID != a.ID {
		t.Fatalf("expected b followed by a, got %+v", followers)
	}

	// 单向关注不互关
	mutuals, err := env.social.Mutuals(a.ID)
	if err != nil {
		t.Fatalf("mutuals failed: %v", err)
	}
	if len(mutuals) != 0 {
		t.Fatalf("expected no mutuals yet, got %+v", mutuals)
	}

	if err := env.social.Follow(Actor{ID: b.ID}, a.ID); err != nil {
		t.Fatalf("follow back failed: %v", err)
	}
	mutuals, err = env.social.Mutuals(a.ID)
	if err != nil {
		t.Fatalf("mutuals failed: %v", err)
	}
	if len(mutuals) != 1 || mutuals[0].ID != b.ID {
		t.Fatalf("expected b as mutual, got %+v", mutuals)
	}

	// 取关后双向视图同步消失
	if err := env.social.Unfollow(Actor{ID: a.ID}, b.ID); err != nil {
		t.Fatalf("unfollow failed: %v", err)
	}
	following, _, err = env.social.Following(a.ID)
	if err != nil {
		t.Fatalf("following failed: %v", err)
	}
	if len(following) != 0 {
		t.Fatalf("expected empty following, got %+v", following)
	}
	followers, _, err = env.social.Followers(b.ID)
	if err != nil {
		t.Fatalf("followers failed: %v", err)
	}
	if len(followers) != 0 {
		t.Fatalf("expected empty followers, got %+v", followers)
	}
}

func TestFollowErrors(t *testing.T) {
	env := newTestEnv(t, "social_errors")
	a := env.createUser(t, "alice", false)
	b := env.createUser(t, "bob", false)

	if err := env.social.Follow(Actor{ID: a.ID}, a.ID); !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("expected ErrSelfFollow, got %v", err)
	}
	if err := env.social.Follow(Actor{ID: a.ID}, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := env.social.Follow(Actor{ID: a.ID}, b.ID); err != nil {
		t.Fatalf("follow failed: %v", err)
	}
	if err := env.social.Follow(Actor{ID: a.ID}, b.ID); !errors.Is(err, ErrAlreadyFollowing) {
		t.Fatalf("expected ErrAlreadyFollowing, got %v", err)
	}
	if err := env.social.Unfollow(Actor{ID: b.ID}, a.ID); !errors.Is(err, ErrNotFollowing) {
		t.Fatalf("expected ErrNotFollowing, got %v", err)
	}

	// 关注事件发给被关注者
	if len(env.notifier.events) != 1 {
		t.Fatalf("expected 1 event, got %+v", env.notifier.events)
	}
	event := env.notifier.events[0]
	if event.Type != constants.NotificationTypeFollow || event.ActorID != a.ID || event.RecipientID != b.ID {
		t.Fatalf("unexpected follow event: %+v", event)
	}
}

func TestRecommendFollowedByFollowed(t *testing.T) {
	env := newTestEnv(t, "social_recommend")
	me := env.createUser(t, "me", false)
	friend1 := env.createUser(t, "friend1", false)
	friend2 := env.createUser(t, "friend2", false)
	popular := env.createUser(t, "popular", false)
	niche := env.createUser(t, "niche", false)
	known := env.createUser(t, "known", false)

	follow := func(from, to uint) {
		t.Helper()
		if err := env.social.Follow(Actor{ID: from}, to); err != nil {
			t.Fatalf("follow failed: %v", err)
		}
	}
	follow(me.ID, friend1.ID)
	follow(me.ID, friend2.ID)
	follow(me.ID, known.ID)
	// popular 被两个朋友关注，niche 只被一个
	follow(friend1.ID, popular.ID)
	follow(friend2.ID, popular.ID)
	follow(friend1.ID, niche.ID)
	// 已关注与自己都不该出现
	follow(friend1.ID, known.ID)
	follow(friend2.ID, me.ID)

	recommended, err := env.social.Recommend(me.ID, 10)
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}
	if len(recommended) != 2 {
		t.Fatalf("expected 2 recommendations, got %+v", recommended)
	}
	if recommended[0].ID != popular.ID || recommended[1].ID != niche.ID {
		t.Fatalf("expected popular then niche, got %d then %d", recommended[0].ID, recommended[1].ID)
	}
}
