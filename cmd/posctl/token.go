package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pos-api/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:     "token",
	Short:   "Emite un JWT firmado con JWT_SECRET (uso local y pruebas)",
	Example: `  posctl token --user u1 --company c1 --branch b1 --role cajero`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		company, _ := cmd.Flags().GetString("company")
		branch, _ := cmd.Flags().GetString("branch")
		role, _ := cmd.Flags().GetString("role")
		minutes, _ := cmd.Flags().GetInt("minutes")
		if minutes <= 0 {
			minutes = e.cfg.JWT.Expiration
		}
		tok, err := jwt.Generate(e.cfg.JWT.Secret, jwt.Identity{
			UserID: user, CompanyID: company, BranchID: branch, Role: role,
		}, e.cfg.JWT.Issuer, minutes)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user", "", "id del usuario")
	tokenCmd.Flags().String("company", "", "id de la empresa")
	tokenCmd.Flags().String("branch", "", "id de la sucursal (vacío = sin sucursal)")
	tokenCmd.Flags().String("role", "cajero", "admin | cajero")
	tokenCmd.Flags().Int("minutes", 0, "vigencia en minutos (0 = JWT_EXPIRATION_MINUTES)")
	_ = tokenCmd.MarkFlagRequired("user")
	_ = tokenCmd.MarkFlagRequired("company")
}
