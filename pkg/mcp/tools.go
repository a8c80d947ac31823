package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names.
const (
	ToolNameProfile = "docgap_profile"
	ToolNameRank    = "docgap_rank"
)

// MaxCodeInputBytes caps inline code input at 1 MiB.
const MaxCodeInputBytes = 1 << 20

// Input validation errors.
var (
	ErrEmptyCode           = errors.New("code parameter is required and must not be empty")
	ErrEmptyFilename       = errors.New("filename parameter is required and must not be empty")
	ErrCodeTooLarge        = errors.New("code input exceeds maximum size")
	ErrEmptyRepoPath       = errors.New("repo_path parameter is required and must not be empty")
	ErrRepoPathNotAbsolute = errors.New("repo_path must be an absolute path")
	ErrRepoNotFound        = errors.New("repository path does not exist")
	ErrNegativeLimit       = errors.New("limit must not be negative")
)

// ProfileInput is the input schema for docgap_profile.
type ProfileInput struct {
	Code     string `json:"code"     jsonschema:"source code to profile"`
	Filename string `json:"filename" jsonschema:"file name used to pick the comment syntax (e.g. dh_check.c)"`
}

// RankInput is the input schema for docgap_rank.
type RankInput struct {
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of rows to return (default: 20)"`
	RepoPath string `json:"repo_path"       jsonschema:"absolute path to a Git working tree"`
	Since    string `json:"since,omitempty" jsonschema:"only search commits after this time (e.g. 720h or 2023-01-01)"`
}

// ToolOutput is the structured output of every tool.
type ToolOutput struct {
	Data any `json:"data"`
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}
