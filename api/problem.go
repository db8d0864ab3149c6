package api

// ProblemDetails 后端错误体（RFC7807 字段 + 常见的 message/error 字段）
type ProblemDetails struct {
	// RFC7807 标准字段
	Type     string
	Title    string
	Status   *int
	Detail   string
	Instance string

	// Message 后端的 message 或 error 字段
	Message string
	// Details 其余未识别字段
	Details map[string]interface{}
}

// Summary 最适合展示给用户的一行描述
func (p *ProblemDetails) Summary() string {
	switch {
	case p.Detail != "":
		return p.Detail
	case p.Message != "":
		return p.Message
	default:
		return p.Title
	}
}

// Problem 将 JSON 错误体解析为 ProblemDetails
//
// 响应体不是 JSON 对象，或不含任何可识别字段时返回 false。
func (e *Error) Problem() (*ProblemDetails, bool) {
	body, ok := e.Body.(map[string]interface{})
	if !ok {
		return nil, false
	}

	p := &ProblemDetails{Details: make(map[string]interface{})}
	found := false
	for key, v := range body {
		s, isString := v.(string)
		switch key {
		case "type":
			p.Type, found = s, found || isString
		case "title":
			p.Title, found = s, found || isString
		case "detail":
			p.Detail, found = s, found || isString
		case "instance":
			p.Instance, found = s, found || isString
		case "message", "error":
			if !isString {
				p.Details[key] = v
			}
		case "status":
			if f, ok := v.(float64); ok {
				status := int(f)
				p.Status, found = &status, true
			}
		default:
			p.Details[key] = v
		}
	}
	// message 优先于 error
	for _, key := range []string{"message", "error"} {
		if s, ok := body[key].(string); ok {
			p.Message, found = s, true
			break
		}
	}
	if !found {
		return nil, false
	}
	if p.Status == nil {
		status := e.Status
		p.Status = &status
	}
	return p, true
}
