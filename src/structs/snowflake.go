package structs

import (
	"bytes"
	"strconv"
	"time"
)

// DiscordEpoch is the first second of 2015 in unix milliseconds. The high
// 42 bits of every snowflake encode a millisecond offset from it.
const DiscordEpoch = 1420070400000

// Snowflake is a time-ordered 64-bit identifier. Transmitted over the wire
// as a quoted decimal string.
type Snowflake uint64

func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// CreatedAt returns the creation time encoded in the identifier.
func (s Snowflake) CreatedAt() time.Time {
	ms := int64(s>>22) + DiscordEpoch
	return time.UnixMilli(ms).UTC()
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	if s == 0 {
		return []byte("null"), nil
	}
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Snowflake) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	data = bytes.Trim(data, `"`)
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return err
	}
	*s = Snowflake(v)
	return nil
}
