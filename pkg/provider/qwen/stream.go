package qwen

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rhuss/pinpoint/pkg/api"
	"github.com/rhuss/pinpoint/pkg/debug"
	"github.com/rhuss/pinpoint/pkg/provider"
)

// foldStream concatenates the "response" fragments of a newline-delimited
// stream into one body. A chunk carrying "error" aborts with
// upstream_unavailable. A stream that never produced a parsable chunk is
// also reported as upstream_unavailable. When no chunk carried a string
// "response" the folded body omits the key, so extraction reports
// no_text_found.
func foldStream(body []byte) (provider.RawResponse, error) {
	var (
		text    strings.Builder
		model   string
		chunks  int
		done    bool
		hasText bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), len(body)+1)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			debug.Log("providers", "skipping malformed stream line", "provider", Name, "line", debug.Truncate(string(line), 200))
			continue
		}

		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			debug.Log("providers", "skipping undecodable stream line", "provider", Name, "error", err.Error())
			continue
		}
		if chunk.Error != "" {
			return nil, api.NewUpstreamError(Name, chunk.Error, fmt.Errorf("stream chunk %d reported an error", chunks))
		}

		chunks++
		if gjson.GetBytes(line, textPath).Type == gjson.String {
			hasText = true
			text.WriteString(chunk.Response)
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		if chunk.Done {
			done = true
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, api.NewUpstreamError(Name, "failed to read streamed response", err)
	}
	if chunks == 0 {
		return nil, api.NewUpstreamError(Name, "failed to parse backend response", fmt.Errorf("stream contained no chunks"))
	}

	reply := foldedReply{Model: model, Done: done}
	if hasText {
		s := text.String()
		reply.Response = &s
	}
	folded, err := json.Marshal(reply)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to fold stream: %s", err.Error()))
	}
	return provider.RawResponse(folded), nil
}
