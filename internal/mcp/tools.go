package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions for the image studio.

var generateToolDef = mcp.NewTool("image_generate",
	mcp.WithDescription("Generate an image from a text prompt. Blocks until the provider settles and returns the finished record, including the result image as a data URL on success."),
	mcp.WithString("prompt",
		mcp.Required(),
		mcp.Description("Text description of the image to generate."),
	),
	mcp.WithString("provider",
		mcp.Description("Provider to use: 'openai' or 'gemini'. Defaults to the configured default provider."),
	),
	mcp.WithBoolean("include_image",
		mcp.Description("Include the result image data URL in the response. Defaults to true."),
	),
)

var editToolDef = mcp.NewTool("image_edit",
	mcp.WithDescription("Edit one or more input images with an optional instruction. Inputs may be local file paths, data URLs, or http(s) URLs. Blocks until the provider settles."),
	mcp.WithArray("images",
		mcp.Required(),
		mcp.Description("Input images to edit: local file paths, data URLs, or http(s) URLs."),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithString("prompt",
		mcp.Description("Additional editing instructions. Optional; the default compositing instruction always applies."),
	),
	mcp.WithString("provider",
		mcp.Description("Provider to use: 'openai' or 'gemini'. Defaults to the configured default provider."),
	),
	mcp.WithBoolean("include_image",
		mcp.Description("Include the result image data URL in the response. Defaults to true."),
	),
)

var historyListToolDef = mcp.NewTool("history_list",
	mcp.WithDescription("List image records, newest first. Result images are omitted by default to keep responses small."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of records to return. 0 or omitted returns all."),
	),
	mcp.WithBoolean("include_images",
		mcp.Description("Include result image data URLs in the response. Defaults to false."),
	),
)

var historyDeleteToolDef = mcp.NewTool("history_delete",
	mcp.WithDescription("Delete a single image record by id. Deleting a pending record does not cancel its provider call; the result is discarded when it arrives."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Record id to delete."),
	),
)

var historyClearToolDef = mcp.NewTool("history_clear",
	mcp.WithDescription("Delete all image records. Requires confirm=true."),
	mcp.WithBoolean("confirm",
		mcp.Required(),
		mcp.Description("Must be true to clear the history."),
	),
)
