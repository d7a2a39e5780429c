package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint256DecodeString(t *testing.T) {
	hexStr := "f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d"
	val, err := Uint256DecodeStringLE(hexStr)
	require.NoError(t, err)
	require.Equal(t, hexStr, val.StringLE())

	valBE, err := Uint256DecodeStringBE(hexStr)
	require.NoError(t, err)
	require.Equal(t, hexStr, valBE.StringBE())
	require.Equal(t, val, valBE.Reverse())

	_, err = Uint256DecodeStringLE(hexStr[1:])
	require.Error(t, err)
	_, err = Uint256DecodeStringLE(hexStr[:len(hexStr)-1] + "q")
	require.Error(t, err)
}

func TestUint256DecodeBytes(t *testing.T) {
	hexStr := "f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d"
	val, err := Uint256DecodeStringBE(hexStr)
	require.NoError(t, err)

	fromBytes, err := Uint256DecodeBytesBE(val.BytesBE())
	require.NoError(t, err)
	require.Equal(t, val, fromBytes)

	fromBytes, err = Uint256DecodeBytesLE(val.BytesLE())
	require.NoError(t, err)
	require.Equal(t, val, fromBytes)

	_, err = Uint256DecodeBytesBE(val.BytesBE()[:10])
	require.Error(t, err)
}

func TestUint256Equals(t *testing.T) {
	a := "f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d"
	b := "e287c5b29a1b66092be6803c59c765308ac20287e1b4977fd399da5fc8f66ab5"

	ua, err := Uint256DecodeStringLE(a)
	require.NoError(t, err)
	ub, err := Uint256DecodeStringLE(b)
	require.NoError(t, err)
	require.False(t, ua.Equals(ub))
	require.True(t, ua.Equals(ua))
	require.NotZero(t, ua.CompareTo(ub))
	require.Zero(t, ua.CompareTo(ua))
}

func TestUint256MarshalJSON(t *testing.T) {
	str := "f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d"
	expected, err := Uint256DecodeStringLE(str)
	require.NoError(t, err)

	data, err := json.Marshal(expected)
	require.NoError(t, err)
	require.Equal(t, `"0x`+str+`"`, string(data))

	var u1, u2 Uint256
	require.NoError(t, json.Unmarshal(data, &u1))
	require.Equal(t, expected, u1)
	require.NoError(t, json.Unmarshal([]byte(`"`+str+`"`), &u2))
	require.Equal(t, expected, u2)
}
