package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highfive-goorm/highfive-back/pkg/utils"
)

func TestDomainErrorIs(t *testing.T) {
	err := fmt.Errorf("load: %w", NewDomainError(ModuleCatalog, ErrorCodeSchema, "catalog: missing required column \"price\""))

	assert.True(t, errors.Is(err, ErrSchema))
	assert.False(t, errors.Is(err, ErrTypeMismatch))
	assert.True(t, IsSchema(err))
	assert.True(t, IsDomainError(err))
	assert.Equal(t, ModuleCatalog, GetDomainError(err).Module)

	assert.False(t, IsSchema(errors.New("plain")))
	assert.Nil(t, GetDomainError(nil))
}

func TestIsStoreNotFound(t *testing.T) {
	assert.True(t, IsStoreNotFound(ErrStoreNotFound))
	assert.True(t, IsNotFound(ErrStoreNotFound))
	// 其它模块的 NOT_FOUND 不算存储 key 缺失
	assert.False(t, IsStoreNotFound(NewDomainError(ModuleRecommend, ErrorCodeNotFound, "x")))
}

func TestSeedIndexDeterministic(t *testing.T) {
	users := []string{"guest", "b50b7a33-902f-420b-afa9-8f90b99cddf9", "홍길동", "a", ""}
	for _, u := range users {
		first, err := SeedIndex(u, 1000)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			again, err := SeedIndex(u, 1000)
			require.NoError(t, err)
			assert.Equal(t, first, again, u)
		}
		assert.GreaterOrEqual(t, first, 0)
		assert.Less(t, first, 1000)
	}
}

func TestSeedIndexRange(t *testing.T) {
	for n := 1; n <= 50; n++ {
		idx, err := SeedIndex("user", n)
		require.NoError(t, err)
		assert.True(t, idx >= 0 && idx < n, "n=%d idx=%d", n, idx)
	}

	_, err := SeedIndex("user", 0)
	require.Error(t, err)
	assert.True(t, IsEmptyCatalog(err))
}

func TestUserSeedFNV(t *testing.T) {
	// FNV-1a 32 位的公开测试向量
	assert.Equal(t, uint32(0x811c9dc5), UserSeed(""))
	assert.Equal(t, uint32(0xe40c292c), UserSeed("a"))
}

func TestItemLabels(t *testing.T) {
	it := NewItem(7, 3)
	it.PutLabel(utils.LabelRecallSource, utils.NewLabel("recall.similar", "recall"))
	it.PutLabel(utils.LabelRecallSource, utils.NewLabel("recall.other", "recall"))
	assert.Equal(t, "recall.similar|recall.other", it.Labels[utils.LabelRecallSource].Value)

	it.Meta["category_code"] = "001"
	assert.Equal(t, "001", it.MetaString("category_code"))
	assert.Equal(t, "", it.MetaString("missing"))
}
