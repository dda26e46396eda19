package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestStreamReproducibility(t *testing.T) {
	svc := New(42)

	s1 := svc.Stream(3, PurposeLayout, 0)
	s2 := New(42).Stream(3, PurposeLayout, 0)

	for i := 0; i < 100; i++ {
		if a, b := s1.Next(), s2.Next(); a != b {
			t.Fatalf("Draw %d mismatch: %d != %d", i, a, b)
		}
	}
	assert.Equal(t, int64(100), s1.Draws())
}

func TestStreamsAreIndependent(t *testing.T) {
	svc := New(42)

	// Drawing heavily from the placement stream must not shift the layout stream.
	layoutA := svc.Stream(0, PurposeLayout, 0)
	placement := svc.Stream(0, PurposePlacement, 0)
	for i := 0; i < 1000; i++ {
		placement.Next()
	}
	layoutB := svc.Stream(0, PurposeLayout, 0)

	for i := 0; i < 20; i++ {
		assert.Equal(t, layoutA.Next(), layoutB.Next())
	}
}

func TestStreamKeysDiffer(t *testing.T) {
	base := StreamKey(42, 0, PurposeLayout, 0)

	assert.NotEqual(t, base, StreamKey(43, 0, PurposeLayout, 0), "seed")
	assert.NotEqual(t, base, StreamKey(42, 1, PurposeLayout, 0), "level")
	assert.NotEqual(t, base, StreamKey(42, 0, PurposePlacement, 0), "purpose")
	assert.NotEqual(t, base, StreamKey(42, 0, PurposeLayout, 1), "attempt")
}

func TestRangeIsInclusive(t *testing.T) {
	s := New(7).Stream(0, PurposeLayout, 0)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		v := s.Range(3, 6)
		require.GreaterOrEqual(t, v, 3)
		require.LessOrEqual(t, v, 6)
		seen[v] = true
	}
	assert.Len(t, seen, 4)

	assert.Equal(t, 5, s.Range(5, 5))
	assert.Equal(t, 0, s.Intn(0))
}

func TestChoiceAndWeightedIndex(t *testing.T) {
	s := New(99).Stream(0, PurposeMonsters, 0)

	items := []string{"rat", "bat", "slime"}
	for i := 0; i < 50; i++ {
		assert.Contains(t, items, Choice(s, items))
	}

	for i := 0; i < 50; i++ {
		idx := WeightedIndex(s, []int{0, 5, 0, 1})
		assert.True(t, idx == 1 || idx == 3, "picked zero-weight index %d", idx)
	}
	assert.Equal(t, -1, WeightedIndex(s, []int{0, 0}))
}

func TestShuffleIsDeterministic(t *testing.T) {
	a := []int{1, 2, 3, 4, 5, 6, 7, 8}
	b := append([]int(nil), a...)

	s1 := New(1).Stream(2, PurposePlacement, 0)
	s2 := New(1).Stream(2, PurposePlacement, 0)
	s1.Shuffle(len(a), func(i, j int) { a[i], a[j] = a[j], a[i] })
	s2.Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })

	assert.Equal(t, a, b)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, a)
}

func TestParseSeed(t *testing.T) {
	tests := []struct {
		input string
		want  Seed
	}{
		{"42", 42},
		{" 42 ", 42},
		{"18446744073709551615", Seed(^uint64(0))},
		{"-1", Seed(^uint64(0))},
	}
	for _, tt := range tests {
		got, err := ParseSeed(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	a, err := ParseSeed("cavern")
	require.NoError(t, err)
	b, err := ParseSeed("cavern")
	require.NoError(t, err)
	c, err := ParseSeed("caverns")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, err = ParseSeed("   ")
	assert.Error(t, err)

	parsed, err := ParseSeed(Seed(1234).String())
	require.NoError(t, err)
	assert.Equal(t, Seed(1234), parsed)
}

func TestBoundsYAML(t *testing.T) {
	var cfg struct {
		Short Bounds `yaml:"short"`
		Long  Bounds `yaml:"long"`
	}
	err := yaml.Unmarshal([]byte("short: [3, 6]\nlong: {min: 2, max: 9}\n"), &cfg)
	require.NoError(t, err)

	assert.Equal(t, Bounds{Min: 3, Max: 6}, cfg.Short)
	assert.Equal(t, Bounds{Min: 2, Max: 9}, cfg.Long)

	var bad struct {
		B Bounds `yaml:"b"`
	}
	assert.Error(t, yaml.Unmarshal([]byte("b: [1, 2, 3]\n"), &bad))

	assert.True(t, Bounds{Min: 1, Max: 1}.Valid())
	assert.False(t, Bounds{Min: 4, Max: 1}.Valid())
	assert.True(t, Bounds{Min: 1, Max: 4}.Contains(4))
}
