package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewModuleCmd создаёт группу команд для модулей приложения.
func NewModuleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module",
		Short: "Inspect application modules",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List modules of the application",
		RunE: func(cmd *cobra.Command, args []string) error {
			modules, err := clientFn().ListModules()
			if err != nil {
				return err
			}

			rows := make([][]string, len(modules))
			for i, m := range modules {
				rows[i] = []string{m.Name, strconv.FormatBool(m.FromAppStore), m.ID}
			}
			outputFn().Print([]string{"NAME", "APP STORE", "ID"}, rows, modules)
			return nil
		},
	})

	return cmd
}

// NewEntityCmd создаёт группу команд для сущностей доменной модели.
func NewEntityCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Manage domain model entities",
	}

	cmd.AddCommand(
		newEntityListCmd(clientFn, outputFn),
		newEntityCreateCmd(clientFn, outputFn),
	)

	return cmd
}

func newEntityListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list MODULE",
		Short: "List entities of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entities, err := clientFn().ListEntities(args[0])
			if err != nil {
				return err
			}

			outputFn().Print(entityHeaders, entityRows(entities...), entities)
			return nil
		},
	}
}

func newEntityCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		req            CreateEntityRequest
		attrs          []string
		nonPersistable bool
	)

	cmd := &cobra.Command{
		Use:   "create MODULE",
		Short: "Create an entity in a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range attrs {
				a, err := parseAttribute(raw)
				if err != nil {
					return err
				}
				req.Attributes = append(req.Attributes, a)
			}
			if cmd.Flags().Changed("non-persistable") {
				persistable := !nonPersistable
				req.Persistable = &persistable
			}

			entity, err := clientFn().CreateEntity(args[0], req)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Entity created: %s", entity.QualifiedName))
			out.Print(entityHeaders, entityRows(*entity), entity)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Entity name (required)")
	cmd.Flags().StringArrayVar(&attrs, "attr", nil, "Attribute as NAME:TYPE[:LENGTH] (repeatable)")
	cmd.Flags().BoolVar(&nonPersistable, "non-persistable", false, "Create a non-persistable entity")
	cmd.Flags().StringVar(&req.Generalization, "generalization", "", "Qualified name of the parent entity")
	cmd.Flags().StringVar(&req.Documentation, "doc", "", "Documentation")
	cmd.MarkFlagRequired("name")

	return cmd
}

var entityHeaders = []string{"NAME", "MODULE", "PERSISTABLE", "ATTRIBUTES", "GENERALIZATION"}

func entityRows(entities ...EntityResponse) [][]string {
	rows := make([][]string, len(entities))
	for i, e := range entities {
		rows[i] = []string{
			e.Name,
			e.Module,
			strconv.FormatBool(e.Persistable),
			strconv.Itoa(len(e.Attributes)),
			e.Generalization,
		}
	}
	return rows
}

// parseAttribute разбирает "Name:Type" или "Name:String:200".
func parseAttribute(raw string) (Attribute, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return Attribute{}, fmt.Errorf("invalid --attr %q: want NAME:TYPE[:LENGTH]", raw)
	}

	a := Attribute{Name: parts[0], Type: parts[1]}
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 0 {
			return Attribute{}, fmt.Errorf("invalid length in --attr %q", raw)
		}
		a.Length = n
	}
	return a, nil
}

// NewMicroflowCmd создаёт группу команд для микрофлоу.
func NewMicroflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "microflow",
		Short: "Manage microflows",
	}

	cmd.AddCommand(
		newMicroflowListCmd(clientFn, outputFn),
		newMicroflowShowCmd(clientFn, outputFn),
		newMicroflowCreateCmd(clientFn, outputFn),
	)

	return cmd
}

func newMicroflowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List microflows with their resolved modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			microflows, err := clientFn().ListMicroflows(module)
			if err != nil {
				return err
			}

			rows := make([][]string, len(microflows))
			for i, mf := range microflows {
				rows[i] = []string{mf.Name, mf.Module, mf.ResolvedBy, mf.ID}
			}
			outputFn().Print([]string{"NAME", "MODULE", "RESOLVED BY", "ID"}, rows, microflows)
			return nil
		},
	}

	cmd.Flags().StringVar(&module, "module", "", "Only microflows of this module")

	return cmd
}

func newMicroflowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show MODULE NAME",
		Short: "Show microflow details",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := clientFn().GetMicroflow(args[0], args[1])
			if err != nil {
				return err
			}
			printMicroflow(outputFn(), mf)
			return nil
		},
	}
}

func newMicroflowCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		req    CreateMicroflowRequest
		params []string
	)

	cmd := &cobra.Command{
		Use:   "create MODULE",
		Short: "Create a microflow in a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range params {
				name, typ, ok := strings.Cut(raw, ":")
				if !ok || name == "" || typ == "" {
					return fmt.Errorf("invalid --param %q: want NAME:TYPE", raw)
				}
				req.Parameters = append(req.Parameters, Parameter{Name: name, Type: typ})
			}

			mf, err := clientFn().CreateMicroflow(args[0], req)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Microflow created: %s", mf.QualifiedName))
			printMicroflow(out, mf)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Microflow name (required)")
	cmd.Flags().StringVar(&req.Folder, "folder", "", "Folder path inside the module, e.g. Orders/Admin")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Parameter as NAME:TYPE (repeatable)")
	cmd.Flags().StringVar(&req.ReturnType, "return-type", "", "Return type (default Void)")
	cmd.Flags().StringVar(&req.Documentation, "doc", "", "Documentation")
	cmd.MarkFlagRequired("name")

	return cmd
}

func printMicroflow(out *Output, mf *MicroflowDetailsResponse) {
	params := make([]string, len(mf.Parameters))
	for i, p := range mf.Parameters {
		params[i] = p.Name + ": " + p.Type
	}
	activities := make([]string, len(mf.Activities))
	for i, a := range mf.Activities {
		activities[i] = a.Type
		if a.Caption != "" {
			activities[i] += " (" + a.Caption + ")"
		}
	}

	out.Fields([][2]string{
		{"Name", mf.Name},
		{"Qualified name", mf.QualifiedName},
		{"Module", mf.Module},
		{"Resolved by", mf.ResolvedBy},
		{"Parameters", strings.Join(params, ", ")},
		{"Returns", mf.ReturnType},
		{"Activities", strings.Join(activities, ", ")},
		{"Allowed roles", strings.Join(mf.AllowedRoles, ", ")},
		{"Documentation", mf.Documentation},
		{"ID", mf.ID},
	}, mf)
}
