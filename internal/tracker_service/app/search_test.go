package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

func TestApplication_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyQuery", func(t *testing.T) {
		a := setupAppTest(t)
		results, err := a.Search(ctx, "   ")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("DigitProjectionMatchesAnySpelling", func(t *testing.T) {
		a := setupAppTest(t)
		op := mustCreateOperator(t, a, "MTS")
		p := mustCreatePhone(t, a, "+7 (965) 109-11-62", op.ID)

		// The query digits match across the formatting of the stored number.
		for _, q := range []string{"9651091162", "965 109", "109-11"} {
			results, err := a.Search(ctx, q)
			require.NoError(t, err, "query %q", q)
			require.Len(t, results, 1, "query %q", q)
			assert.Equal(t, domain.SearchResultPhone, results[0].Kind)
			assert.Equal(t, p.ID, results[0].ID)
			assert.Equal(t, p.NormalizedNumber, results[0].DisplayText)
		}
	})

	t.Run("LiteralMatchOnRawNumber", func(t *testing.T) {
		a := setupAppTest(t)
		op := mustCreateOperator(t, a, "MTS")
		p := mustCreatePhone(t, a, "+7 (965) 109-11-62", op.ID)

		results, err := a.Search(ctx, "(965)")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, p.ID, results[0].ID)
	})

	t.Run("ServiceNameCaseInsensitive", func(t *testing.T) {
		a := setupAppTest(t)
		sv := mustCreateService(t, a, "Yandex Market")

		for _, q := range []string{"yandex", "YANDEX", "dex mar"} {
			results, err := a.Search(ctx, q)
			require.NoError(t, err, "query %q", q)
			require.Len(t, results, 1, "query %q", q)
			assert.Equal(t, domain.SearchResultService, results[0].Kind)
			assert.Equal(t, sv.ID, results[0].ID)
			assert.Equal(t, "Yandex Market", results[0].DisplayText)
		}
	})

	t.Run("SpecialCharactersAreLiteral", func(t *testing.T) {
		a := setupAppTest(t)
		mustCreateService(t, a, "plain")
		percent := mustCreateService(t, a, "100% cashback")

		// "%" must not act as a wildcard and must not error.
		results, err := a.Search(ctx, "100%")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, percent.ID, results[0].ID)

		results, err = a.Search(ctx, "_")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("PhonesBeforeServicesDeterministically", func(t *testing.T) {
		a := setupAppTest(t)
		op := mustCreateOperator(t, a, "MTS")
		p1 := mustCreatePhone(t, a, "+79990001122", op.ID)
		p2 := mustCreatePhone(t, a, "+79990003344", op.ID)
		sv := mustCreateService(t, a, "Promo 999")

		first, err := a.Search(ctx, "999")
		require.NoError(t, err)
		require.Len(t, first, 3)
		assert.Equal(t, p1.ID, first[0].ID)
		assert.Equal(t, p2.ID, first[1].ID)
		assert.Equal(t, sv.ID, first[2].ID)

		// Same store state, same order.
		second, err := a.Search(ctx, "999")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("PerKindLimit", func(t *testing.T) {
		a := setupAppTest(t, WithSearchLimit(2))
		op := mustCreateOperator(t, a, "MTS")
		mustCreatePhone(t, a, "+79990001122", op.ID)
		mustCreatePhone(t, a, "+79990003344", op.ID)
		mustCreatePhone(t, a, "+79990005566", op.ID)
		mustCreateService(t, a, "Promo 999")

		results, err := a.Search(ctx, "999")
		require.NoError(t, err)
		// two phones (capped) plus the one service
		require.Len(t, results, 3)
		assert.Equal(t, domain.SearchResultPhone, results[0].Kind)
		assert.Equal(t, domain.SearchResultPhone, results[1].Kind)
		assert.Equal(t, domain.SearchResultService, results[2].Kind)
	})

	t.Run("NoMatches", func(t *testing.T) {
		a := setupAppTest(t)
		mustCreateService(t, a, "Yandex")
		results, err := a.Search(ctx, "nothing here")
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
