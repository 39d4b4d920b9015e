package file

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// UpdateRequest accepts tags as a JSON array or a comma separated string and
// isPublic as a boolean or "true"/"false".
type UpdateRequest struct {
	SenderName  *string   `json:"senderName"`
	Description *string   `json:"description"`
	Tags        *TagList  `json:"tags"`
	IsPublic    *FlexBool `json:"isPublic"`
}

type TagList []string

func (t *TagList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = strings.Split(s, ",")
		return nil
	}

	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return errors.New("tags must be a string or an array of strings")
	}
	*t = list
	return nil
}

type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return errors.New("isPublic must be a boolean")
		}
		*f = FlexBool(v)
		return nil
	}

	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return errors.New("isPublic must be a boolean")
	}
	*f = FlexBool(v)
	return nil
}
