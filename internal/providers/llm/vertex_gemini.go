package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yoockh/yoointerview/internal/models"
)

type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string, opts ...option.ClientOption) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// Complete maps the chat onto a Gemini chat session: system turns become the
// system instruction, the last turn is sent, the rest is history.
func (v *VertexGemini) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := v.client.GenerativeModel(v.modelName)
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.JSONOutput {
		model.ResponseMIMEType = "application/json"
	}

	var system []string
	var contents []*vertexgenai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, m.Content)
		case models.RoleAssistant:
			contents = append(contents, &vertexgenai.Content{Role: "model", Parts: []vertexgenai.Part{vertexgenai.Text(m.Content)}})
		default:
			contents = append(contents, &vertexgenai.Content{Role: "user", Parts: []vertexgenai.Part{vertexgenai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(strings.Join(system, "\n\n"))}}
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("vertex: no user content to send")
	}

	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]
	resp, err := cs.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return "", classifyVertexError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates", ErrMalformedEnvelope)
	}
	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(vertexgenai.Text); ok {
			out.WriteString(string(t))
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%w: empty candidate", ErrMalformedEnvelope)
	}
	return out.String(), nil
}

// classifyVertexError translates gRPC codes into the HTTP status the gateway
// retry policy understands.
func classifyVertexError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.ResourceExhausted:
		return &StatusError{StatusCode: http.StatusTooManyRequests, Message: st.Message()}
	case codes.Unavailable:
		return &StatusError{StatusCode: http.StatusServiceUnavailable, Message: st.Message()}
	case codes.Internal, codes.Unknown:
		return &StatusError{StatusCode: http.StatusInternalServerError, Message: st.Message()}
	case codes.DeadlineExceeded:
		return &StatusError{StatusCode: http.StatusGatewayTimeout, Message: st.Message()}
	case codes.InvalidArgument:
		return &StatusError{StatusCode: http.StatusBadRequest, Message: st.Message()}
	case codes.PermissionDenied, codes.Unauthenticated:
		return &StatusError{StatusCode: http.StatusForbidden, Message: st.Message()}
	default:
		return err
	}
}
