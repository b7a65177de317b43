package settings

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ordishs/gocore"
)

// listSeparator splits multi valued settings such as txnode_peers=memory://|kafka://b1:9092/txns.
const listSeparator = "|"

func getString(key, defaultValue string) string {
	if value, found := gocore.Config().Get(key); found {
		return strings.TrimSpace(value)
	}

	return defaultValue
}

// getList splits a multi valued setting, dropping blank entries. An unset key is an empty list.
func getList(key string) []string {
	values, _ := gocore.Config().GetMulti(key, listSeparator)

	list := make([]string, 0, len(values))

	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}

	return list
}

func getInt(key string, defaultValue int) int {
	if value, found := gocore.Config().GetInt(key); found {
		return value
	}

	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	return gocore.Config().GetBool(key, defaultValue)
}

// getDuration accepts a Go duration ("1m30s") or a bare number of milliseconds. Values that parse as
// neither fall back to the default.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, found := gocore.Config().Get(key)
	if !found {
		return defaultValue
	}

	value = strings.TrimSpace(value)

	if millis, err := strconv.Atoi(value); err == nil {
		return time.Duration(millis) * time.Millisecond
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}

	return defaultValue
}

func getURL(key, defaultValue string) *url.URL {
	value, _, _ := gocore.Config().GetURL(key, defaultValue)

	return value
}
