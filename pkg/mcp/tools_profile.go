package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/docgap/pkg/linecount"
)

// ProfileOutput is the docgap_profile result.
type ProfileOutput struct {
	Filename string           `json:"filename"`
	Syntax   string           `json:"syntax"`
	Counts   linecount.Counts `json:"counts"`
	Ratio    float64          `json:"comment_ratio"`
}

func handleProfile(
	_ context.Context, _ *mcpsdk.CallToolRequest, input ProfileInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateProfileInput(input)
	if err != nil {
		return errorResult(err)
	}

	counts := linecount.NewProfiler().ProfileString(input.Filename, input.Code)

	return jsonResult(ProfileOutput{
		Filename: input.Filename,
		Syntax:   linecount.SyntaxFor(input.Filename).Name,
		Counts:   counts,
		Ratio:    counts.Ratio(),
	})
}

func validateProfileInput(input ProfileInput) error {
	if input.Code == "" {
		return ErrEmptyCode
	}

	if input.Filename == "" {
		return ErrEmptyFilename
	}

	if len(input.Code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(input.Code), MaxCodeInputBytes)
	}

	return nil
}
