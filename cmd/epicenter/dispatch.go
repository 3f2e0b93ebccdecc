package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dshills/epicenter/internal/app"
)

type dispatchFlags struct {
	kind   string
	fields string
}

func newDispatchCmd(root *rootFlags) *cobra.Command {
	flags := &dispatchFlags{}

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Dispatch a document event and print the result",
		Long: `Dispatch builds a document from --kind and --fields, runs it through the
configured listeners and prints the document as the listeners left it.
Pass --fields - to read the fields object from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(cmd, root, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.kind, "kind", "k", "", "document kind (required)")
	cmd.Flags().StringVarP(&flags.fields, "fields", "f", "", "document fields as a JSON object, or - for stdin")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func runDispatch(cmd *cobra.Command, root *rootFlags, flags *dispatchFlags) error {
	fields, err := readFields(cmd.InOrStdin(), flags.fields)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := loadApp(ctx, cmd, root)
	if err != nil {
		return err
	}
	defer closeApp(ctx, a)

	doc, err := a.Dispatch(ctx, app.Document{Kind: flags.kind, Fields: fields})
	if err != nil {
		return errors.Wrapf(err, "dispatch %s", flags.kind)
	}
	a.Logger().Debug("document dispatched", "kind", doc.Kind, "fields", len(doc.Fields))

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	_, err = cmd.OutOrStdout().Write(append(out, '\n'))
	return err
}

func readFields(stdin io.Reader, raw string) (map[string]any, error) {
	var data []byte
	switch raw {
	case "":
		return nil, nil
	case "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "read stdin")
		}
		data = b
	default:
		data = []byte(raw)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(err, "parse fields")
	}
	return fields, nil
}
