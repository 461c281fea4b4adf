package remnawave

// Normalize unwraps the envelope the route declares. A response that does not
// have the expected shape is returned unchanged.
func Normalize(route *Route, response interface{}) interface{} {
	if len(route.UnwrapPath) == 0 {
		return response
	}

	current := response
	for _, key := range route.UnwrapPath {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return response
		}
		next, ok := obj[key]
		if !ok || next == nil {
			return response
		}
		current = next
	}
	return current
}
