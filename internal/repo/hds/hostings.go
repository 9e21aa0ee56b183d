package hds

import (
	"github.com/tidwall/gjson"
)

// findAvailableCore walks the nested hostings tree returned by <register>hostings
// and returns the availableCore of the first hosting flagged available.
func findAvailableCore(body []byte) (string, bool) {
	return walkHostings(gjson.ParseBytes(body))
}

func walkHostings(node gjson.Result) (core string, found bool) {
	if !node.IsObject() {
		return "", false
	}
	if hostings := node.Get("hostings"); hostings.IsObject() {
		hostings.ForEach(func(_, hosting gjson.Result) bool {
			if hosting.Get("available").Bool() {
				if c := hosting.Get("availableCore").String(); c != "" {
					core, found = c, true
					return false
				}
			}
			return true
		})
		if found {
			return core, true
		}
	}
	node.ForEach(func(key, child gjson.Result) bool {
		if key.String() == "hostings" {
			return true
		}
		core, found = walkHostings(child)
		return !found
	})
	return core, found
}
