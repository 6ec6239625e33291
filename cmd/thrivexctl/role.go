package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"thrivex/internal/rbac"
	"thrivex/pkg/client"

	"github.com/spf13/cobra"
)

func roleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "查看或修改角色的页面与权限",
	}
	cmd.AddCommand(roleShowCmd(), roleBindCmd())
	return cmd
}

func parseRoleID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("无效的角色ID: %s", arg)
	}
	return uint(id), nil
}

// loadEditor 打开角色绑定会话
func loadEditor(cmd *cobra.Command, arg string) (*client.Client, *rbac.Editor, rbac.Editing, error) {
	roleID, err := parseRoleID(arg)
	if err != nil {
		return nil, nil, rbac.Editing{}, err
	}
	c, err := connect(cmd.Context())
	if err != nil {
		return nil, nil, rbac.Editing{}, err
	}
	role, err := c.Role(cmd.Context(), roleID)
	if err != nil {
		return nil, nil, rbac.Editing{}, err
	}

	editor := rbac.NewEditor(c, c)
	ed, err := editor.Load(cmd.Context(), role)
	if err != nil {
		return nil, nil, rbac.Editing{}, err
	}
	return c, editor, ed, nil
}

func roleShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <role-id>",
		Short: "按分组显示角色的权限勾选状态",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, editor, ed, err := loadEditor(cmd, args[0])
			if err != nil {
				return err
			}
			defer editor.Close()

			printEditing(cmd.OutOrStdout(), ed)
			return nil
		},
	}
}

func groupMark(st rbac.GroupState) string {
	switch {
	case st.Checked:
		return "[x]"
	case st.Indeterminate:
		return "[-]"
	default:
		return "[ ]"
	}
}

func printEditing(w io.Writer, ed rbac.Editing) {
	fmt.Fprintf(w, "角色 %s (%s)\n", ed.Role.Name, ed.Role.Mark)

	selectedRoutes := make(map[uint]bool, len(ed.RouteIDs))
	for _, id := range ed.RouteIDs {
		selectedRoutes[id] = true
	}
	fmt.Fprintln(w, "页面:")
	for _, r := range ed.Routes {
		mark := "[ ]"
		if selectedRoutes[r.ID] {
			mark = "[x]"
		}
		fmt.Fprintf(w, "  %s %d %s\n", mark, r.ID, r.Path)
	}

	fmt.Fprintln(w, "权限:")
	for _, g := range ed.Selection.Groups() {
		st := ed.Selection.State(g.Key)
		fmt.Fprintf(w, "  %s %s (%d/%d)\n", groupMark(st), g.Key, st.Selected, st.Total)

		checked := make(map[uint]bool)
		for _, id := range ed.Selection.Get(g.Key) {
			checked[id] = true
		}
		for _, p := range g.Permissions {
			mark := "[ ]"
			if checked[p.ID] {
				mark = "[x]"
			}
			fmt.Fprintf(w, "      %s %d %s %s\n", mark, p.ID, p.Name, p.Description)
		}
	}
}

// parseIDs 解析逗号分隔的ID列表
func parseIDs(s string) ([]uint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []uint{}, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("无效的ID: %s", part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func roleBindCmd() *cobra.Command {
	var (
		routes string
		grant  []string
		revoke []string
		set    []string
	)

	cmd := &cobra.Command{
		Use:   "bind <role-id>",
		Short: "修改角色的页面与权限并提交",
		Long: `在当前绑定的基础上修改后一次性提交:
  --routes 1,2,3        替换页面
  --grant article       勾选整个分组
  --revoke tag          取消整个分组
  --set article=1,2     设置分组内的权限`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, editor, _, err := loadEditor(cmd, args[0])
			if err != nil {
				return err
			}
			defer editor.Close()

			if cmd.Flags().Changed("routes") {
				ids, err := parseIDs(routes)
				if err != nil {
					return err
				}
				if err := editor.SetRoutes(ids); err != nil {
					return err
				}
			}
			for _, g := range grant {
				if err := editor.ToggleGroup(g, true); err != nil {
					return err
				}
			}
			for _, g := range revoke {
				if err := editor.ToggleGroup(g, false); err != nil {
					return err
				}
			}
			for _, kv := range set {
				group, raw, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--set 格式应为 group=ids: %s", kv)
				}
				ids, err := parseIDs(raw)
				if err != nil {
					return err
				}
				if err := editor.SetGroup(group, ids); err != nil {
					return err
				}
			}

			operator, err := c.Me(ctx)
			if err != nil {
				return err
			}
			result, err := editor.Submit(ctx, operator)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "角色 %d 绑定已保存\n", result.RoleID)
			if result.Relogin {
				fmt.Fprintln(out, "修改的是当前登录的角色，请重新登录")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&routes, "routes", "", "页面ID，逗号分隔")
	cmd.Flags().StringArrayVar(&grant, "grant", nil, "勾选整个权限分组，可重复")
	cmd.Flags().StringArrayVar(&revoke, "revoke", nil, "取消整个权限分组，可重复")
	cmd.Flags().StringArrayVar(&set, "set", nil, "设置分组内的权限 group=1,2，可重复")
	return cmd
}
