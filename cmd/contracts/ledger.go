package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
	"github.com/joseph-ayodele/contracts-tracker/internal/intake"
	"github.com/joseph-ayodele/contracts-tracker/internal/mail"
)

func newRegisterCmd(g *globals) *cobra.Command {
	var (
		name, kind, office, channel string
		file                        string
		fields                      []string
		form                        intake.Form
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Append a contract to the ledger and print its mail link",
		Long: `register appends one contract with freshly computed monthly counters.
For lotte contracts pass --file to extract the fields from the document;
--field name=value overrides or supplies individual fields.`,
		Example: `  contracts register --name 김영업 --office 온라인 --channel 지인 --file contract.pdf --commission 30만
  contracts register --name 김영업 --kind novadeal --office 노바딜 --field 고객명=홍길동 --field 대여차종=아반떼`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := g.app(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			sess, err := app.Intake.Login(ctx, name)
			if err != nil {
				return err
			}
			defer app.Intake.Logout(sess.ID)

			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				ex, err := app.Intake.ExtractDocument(ctx, sess.ID, extract.Document{Name: file, Data: data})
				if err != nil {
					return err
				}
				printResult(cmd.ErrOrStderr(), ex.Result)
			}
			form.Fields, err = parseFields(fields)
			if err != nil {
				return err
			}
			form.Kind = constants.Kind(kind)
			form.Office = office
			form.Channel = channel

			out, err := app.Intake.Register(ctx, sess.ID, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "row %d registered (%s %d / total %d)\n",
				out.Row.Index, out.Row.Office, out.Row.OfficeCount, out.Row.PersonCount)
			fmt.Fprintln(cmd.OutOrStdout(), out.Link)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Salesperson name")
	f.StringVar(&kind, "kind", string(constants.KindLotte), "Contract kind: lotte, third_party or novadeal")
	f.StringVar(&office, "office", "", "Reception office")
	f.StringVar(&channel, "channel", "", "Inflow channel")
	f.StringVar(&file, "file", "", "Contract document to extract")
	f.StringArrayVar(&fields, "field", nil, "Field value as name=value (repeatable)")
	f.BoolVar(&form.Additional, "additional", false, "Mark as additional contract")
	f.BoolVar(&form.Referral, "referral", false, "Mark as referral")
	f.StringVar(&form.Commission, "commission", "", "Commission")
	f.StringVar(&form.Incentive, "incentive", "", "Incentive")
	f.StringVar(&form.Delivery, "delivery", "", "Delivery date")
	f.StringVar(&form.Attachment, "attachment", "", "Attached file name (third_party)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("office")
	return cmd
}

func newEditCmd(g *globals) *cobra.Command {
	var (
		name, office, channel string
		row                   int
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change the office and channel of one of your contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := g.app(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			sess, err := app.Intake.Login(ctx, name)
			if err != nil {
				return err
			}
			defer app.Intake.Logout(sess.ID)

			if err := app.Intake.Edit(ctx, sess.ID, row, office, channel); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "row %d updated\n", row)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Salesperson name")
	cmd.Flags().IntVar(&row, "row", 0, "Ledger row (see 'contracts list')")
	cmd.Flags().StringVar(&office, "office", "", "New reception office")
	cmd.Flags().StringVar(&channel, "channel", "", "New inflow channel")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("row")
	_ = cmd.MarkFlagRequired("office")
	return cmd
}

func newCancelCmd(g *globals) *cobra.Command {
	var (
		name string
		row  int
	)
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Mark one of your contracts as cancelled",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := g.app(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			sess, err := app.Intake.Login(ctx, name)
			if err != nil {
				return err
			}
			defer app.Intake.Logout(sess.ID)

			if err := app.Intake.Cancel(ctx, sess.ID, row); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "row %d cancelled\n", row)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Salesperson name")
	cmd.Flags().IntVar(&row, "row", 0, "Ledger row (see 'contracts list')")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("row")
	return cmd
}

func newListCmd(g *globals) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your contracts that are not cancelled",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := g.app(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			sess, err := app.Intake.Login(ctx, name)
			if err != nil {
				return err
			}
			defer app.Intake.Logout(sess.ID)

			rows, err := app.Intake.ListContracts(ctx, sess.ID)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROW\t날짜\t고객명\t계약접수처\t유입경로\t상태")
			for _, r := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					r.Index, r.Field(constants.ColDate), r.Customer, r.Office, r.Channel, r.Status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Salesperson name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newExportCmd(g *globals) *cobra.Command {
	var name, output, from, to string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write your contracts to an XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDate, err := parseDate("from", from)
			if err != nil {
				return err
			}
			toDate, err := parseDate("to", to)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			app, err := g.app(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			sess, err := app.Intake.Login(ctx, name)
			if err != nil {
				return err
			}
			defer app.Intake.Logout(sess.ID)

			data, err := app.Intake.ExportContracts(ctx, sess.ID, fromDate, toDate)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "written %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Salesperson name")
	cmd.Flags().StringVarP(&output, "output", "o", "contracts.xlsx", "Output path")
	cmd.Flags().StringVar(&from, "from", "", "First date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Last date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// newLinkCmd prints the mail link a registration would produce without writing anything.
func newLinkCmd(g *globals) *cobra.Command {
	var (
		name, office, channel string
		fields                []string
		draft                 mail.Draft
	)
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Print the mail link for a contract using the counters it would get now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := g.app(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			values, err := parseFields(fields)
			if err != nil {
				return err
			}
			c, err := app.Ledger.Counters(ctx, name, office)
			if err != nil {
				return err
			}
			draft.Salesperson = name
			draft.Office = office
			draft.Channel = channel
			draft.OfficeCount = c.Office
			draft.PersonCount = c.Person
			draft.Customer = values[extract.FieldCustomer]
			draft.Model = values[extract.FieldModel]
			draft.Period = values[extract.FieldPeriod]
			draft.Price = values[extract.FieldPrice]
			draft.Fee = values[extract.FieldFee]
			draft.Deposit = values[extract.FieldDeposit]

			composer := app.Catalog.Composer()
			if g.verbose {
				for _, k := range sortedKeys(values) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s=%s\n", k, values[k])
				}
				fmt.Fprintln(cmd.ErrOrStderr(), composer.Subject(draft))
			}
			fmt.Fprintln(cmd.OutOrStdout(), composer.URL(draft))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Salesperson name")
	f.StringVar(&office, "office", "", "Reception office")
	f.StringVar(&channel, "channel", "", "Inflow channel")
	f.StringArrayVar(&fields, "field", nil, "Field value as name=value (repeatable)")
	f.BoolVar(&draft.Additional, "additional", false, "Mark as additional contract")
	f.BoolVar(&draft.Referral, "referral", false, "Mark as referral")
	f.StringVar(&draft.Commission, "commission", "", "Commission")
	f.StringVar(&draft.Incentive, "incentive", "", "Incentive")
	f.StringVar(&draft.Delivery, "delivery", "", "Delivery date")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("office")
	return cmd
}

func parseDate(flag, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(constants.DateLayout, v, time.Local)
	if err != nil {
		return nil, fmt.Errorf("--%s must be YYYY-MM-DD", flag)
	}
	return &t, nil
}
