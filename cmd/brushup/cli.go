package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"brushup/internal/blob"
	"brushup/internal/config"
	"brushup/internal/dataurl"
	"brushup/internal/errors"
	"brushup/internal/record"
	"brushup/internal/studio"
	"brushup/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config, st *studio.Studio, blobs *blob.Store) *cli.App {
	app := &cli.App{
		Name:    "brushup",
		Usage:   "Local AI image studio",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(cfg, st, blobs),
			generateCmd(st),
			editCmd(st),
			historyCmd(st),
			showCmd(st),
			deleteCmd(st),
			clearCmd(st),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(cfg *config.Config, st *studio.Studio, blobs *blob.Store) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web gallery",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8787, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(cfg, st, blobs, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv, st)
		},
	}
}

// generateCmd creates the generate command.
func generateCmd(st *studio.Studio) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Generate an image from a text prompt and wait for the result",
		ArgsUsage: "<prompt>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Usage: "Provider: openai|gemini (default: configured default)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write the result image to this file"},
		},
		Action: func(c *cli.Context) error {
			prompt := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if prompt == "" {
				return outputError(errors.NewInvalidRequest("prompt is required"))
			}

			pending, err := st.Submit(c.Context, studio.Submission{
				Text:     prompt,
				Provider: record.Provider(c.String("provider")),
			})
			if err != nil {
				return outputError(err)
			}

			settled := <-pending.Done
			return settledOutput(settled, c.String("out"))
		},
	}
}

// editCmd creates the edit command.
func editCmd(st *studio.Studio) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit one or more images with an optional instruction and wait for the result",
		ArgsUsage: "[prompt]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "image", Aliases: []string{"i"}, Required: true, Usage: "Input image: file path, data URL, or http(s) URL (repeatable)"},
			&cli.StringFlag{Name: "provider", Usage: "Provider: openai|gemini (default: configured default)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write the result image to this file"},
		},
		Action: func(c *cli.Context) error {
			refs := c.StringSlice("image")
			attachments := make([]studio.Attachment, 0, len(refs))
			for _, ref := range refs {
				a, err := attachmentFromRef(ref)
				if err != nil {
					return outputError(err)
				}
				attachments = append(attachments, a)
			}

			pending, err := st.Submit(c.Context, studio.Submission{
				Text:        strings.TrimSpace(strings.Join(c.Args().Slice(), " ")),
				Attachments: attachments,
				Provider:    record.Provider(c.String("provider")),
			})
			if err != nil {
				return outputError(err)
			}

			settled := <-pending.Done
			return settledOutput(settled, c.String("out"))
		},
	}
}

// historyCmd creates the history command.
func historyCmd(st *studio.Studio) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List image records, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 0, Usage: "Maximum items to return (0 = all)"},
			&cli.BoolFlag{Name: "include-images", Usage: "Include result image data URLs"},
		},
		Action: func(c *cli.Context) error {
			records := st.History().Snapshot()
			if limit := c.Int("limit"); limit > 0 && limit < len(records) {
				records = records[:limit]
			}

			views := make([]map[string]any, len(records))
			for i, r := range records {
				views[i] = recordOutput(r, c.Bool("include-images"))
			}
			return outputJSON(map[string]any{
				"records": views,
				"count":   len(views),
			})
		},
	}
}

// showCmd creates the show command.
func showCmd(st *studio.Studio) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a single record, including its result image",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write the result image to this file"},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("id is required"))
			}

			rec, ok := st.History().Get(id)
			if !ok {
				return outputError(errors.NewNotFound(id))
			}

			if out := c.String("out"); out != "" && rec.ResultImage != "" {
				if err := writeImage(out, rec.ResultImage); err != nil {
					return outputError(err)
				}
			}
			return outputJSON(recordOutput(rec, true))
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(st *studio.Studio) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a record by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("id is required"))
			}
			if err := st.Delete(id); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"deleted": true, "id": id})
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(st *studio.Studio) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete all records",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deletion of all records"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("pass --yes to delete all records"))
			}
			if err := st.Clear(); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"cleared": true})
		},
	}
}

// Helper functions

// attachmentFromRef maps a CLI image reference to an attachment. Data URLs and
// http(s) URLs pass through as refs; anything else is read as a file path.
func attachmentFromRef(ref string) (studio.Attachment, error) {
	if strings.HasPrefix(ref, "data:") ||
		strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") {
		return studio.Attachment{Ref: ref}, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return studio.Attachment{}, errors.NewAttachmentUnreadable(ref, err)
	}
	return studio.Attachment{Data: data, Filename: ref}, nil
}

// settledOutput reports a terminal record and optionally writes its image.
func settledOutput(settled *record.Record, out string) error {
	if out != "" && settled.ResultImage != "" {
		if err := writeImage(out, settled.ResultImage); err != nil {
			return outputError(err)
		}
	}
	withImage := out == ""
	return outputJSON(recordOutput(settled, withImage))
}

// writeImage decodes a data URL and writes the raw bytes to path.
func writeImage(path, dataURL string) error {
	_, data, err := dataurl.Decode(dataURL)
	if err != nil {
		return errors.NewInternal(err)
	}
	return os.WriteFile(path, data, 0o644)
}

// recordOutput builds the JSON shape of a record for CLI output.
func recordOutput(r *record.Record, includeImage bool) map[string]any {
	out := map[string]any{
		"id":         r.ID,
		"prompt":     r.Prompt,
		"provider":   r.Provider,
		"mode":       r.Mode,
		"state":      r.State,
		"created_at": r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if r.FailureMessage != "" {
		out["failure_message"] = r.FailureMessage
	}
	if includeImage && r.ResultImage != "" {
		out["result_image"] = r.ResultImage
	}
	return out
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if bErr, ok := err.(*errors.BrushupError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", bErr.Code, bErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
