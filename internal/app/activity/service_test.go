package activity_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/trina/internal/adapters/storage/memory"
	"github.com/PabloGalante/trina/internal/app/activity"
	"github.com/PabloGalante/trina/internal/domain"
)

func TestLogAndList(t *testing.T) {
	svc := activity.NewService(memory.NewStore())
	ctx := domain.WithIdentity(context.Background(), "user-1")

	seconds := 300
	a, err := svc.Log(ctx, activity.LogInput{ActivityType: "breathing", DurationSeconds: &seconds, Completed: true, Notes: "felt calmer"})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, domain.UserID("user-1"), a.UserID)

	_, err = svc.Log(ctx, activity.LogInput{ActivityType: "meditation"})
	require.NoError(t, err)

	list, err := svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "meditation", list[0].ActivityType)
	assert.Equal(t, "breathing", list[1].ActivityType)
	require.NotNil(t, list[1].DurationSeconds)
	assert.Equal(t, 300, *list[1].DurationSeconds)
}

func TestLogAnonymous(t *testing.T) {
	store := memory.NewStore()
	svc := activity.NewService(store)

	a, err := svc.Log(context.Background(), activity.LogInput{ActivityType: "cbt", Completed: true})
	require.NoError(t, err)
	assert.Empty(t, a.UserID)

	_, err = svc.List(context.Background(), 10)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogValidation(t *testing.T) {
	svc := activity.NewService(memory.NewStore())
	negative := -1

	cases := []activity.LogInput{
		{ActivityType: ""},
		{ActivityType: "   "},
		{ActivityType: strings.Repeat("x", 101)},
		{ActivityType: "breathing", DurationSeconds: &negative},
	}
	for i, in := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := svc.Log(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestListDefaultLimit(t *testing.T) {
	svc := activity.NewService(memory.NewStore())
	ctx := domain.WithIdentity(context.Background(), "user-1")

	for i := 0; i < activity.DefaultListLimit+5; i++ {
		_, err := svc.Log(ctx, activity.LogInput{ActivityType: "sleep"})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, activity.DefaultListLimit)
}
