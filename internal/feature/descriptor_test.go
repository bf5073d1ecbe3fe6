package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorSetVectorOrder(t *testing.T) {
	d := DescriptorSet{
		"aspect_ratio": 1.25,
		"pen_lifts":    3,
		"acceleration": 0.07,
	}

	vec := d.Vector()
	require.Len(t, vec, len(CanonicalNames))
	assert.Equal(t, 1.25, vec[0])
	assert.Equal(t, 3.0, vec[14])
	assert.Equal(t, 0.07, vec[16])
	// Absent features contribute zero.
	assert.Equal(t, 0.0, vec[1])
}

func TestDescriptorSetAccessors(t *testing.T) {
	d := DescriptorSet{"density": 0.12}

	assert.False(t, d.Empty())
	assert.True(t, d.Has("density"))
	assert.False(t, d.Has("solidity"))
	assert.Equal(t, 0.12, d.Get("density"))
	assert.Equal(t, 0.0, d.Get("solidity"))
	assert.True(t, DescriptorSet{}.Empty())
}

func TestDescriptorSetClone(t *testing.T) {
	d := DescriptorSet{"density": 0.12, "pen_lifts": 2}
	c := d.Clone()

	require.Equal(t, d, c)
	c["density"] = 0.99
	assert.Equal(t, 0.12, d.Get("density"))
}

func TestSerializeRoundTrip(t *testing.T) {
	d := DescriptorSet{
		"aspect_ratio":      1.3333333333333333,
		"density":           0.2412345678901234,
		"stroke_width_mean": 2.5,
		"pen_lifts":         4,
	}

	data, err := d.Serialize()
	require.NoError(t, err)

	got := Deserialize(data)
	assert.Equal(t, d, got)
}

func TestDeserializeGarbage(t *testing.T) {
	assert.True(t, Deserialize([]byte("{broken")).Empty())
	assert.True(t, Deserialize(nil).Empty())
	assert.True(t, Deserialize([]byte("null")).Empty())
}
