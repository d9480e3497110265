package envselect

import (
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/curatime/portal/internal/cli/config"
	"github.com/curatime/portal/internal/cli/userconfig"
	"github.com/curatime/portal/internal/navigation"
)

// ResolveEnvironment determines which environment to use based on the following priority:
// 1. If alias flag is provided, use that environment
// 2. If user has a selected environment in their local config, use that
// 3. If only one environment in project config, use that
// 4. Otherwise, prompt user to select an environment interactively
func ResolveEnvironment(projectConfig *config.Config, alias string) (*config.Environment, error) {
	// Priority 1: Use alias if provided
	if alias != "" {
		return projectConfig.GetEnvironmentByAlias(alias)
	}

	// Priority 2: Use selected environment from user config
	selected, err := userconfig.GetSelectedEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selected != "" {
		env, err := projectConfig.GetEnvironmentByURL(selected)
		if err != nil {
			// Selected environment no longer exists in project config, clear it and continue
			_ = userconfig.SetSelectedEnvironment("")
		} else {
			return env, nil
		}
	}

	// Priority 3: If only one environment, use it automatically
	if len(projectConfig.Environments) == 1 {
		env := &projectConfig.Environments[0]
		if err := userconfig.SetSelectedEnvironment(env.APIURL); err != nil {
			// Don't fail if we can't save, just continue
			fmt.Printf("Warning: failed to save selected environment: %v\n", err)
		}
		return env, nil
	}

	// Priority 4: Prompt user to select an environment
	env, err := PromptEnvironmentSelection(projectConfig)
	if err != nil {
		return nil, err
	}

	if err := userconfig.SetSelectedEnvironment(env.APIURL); err != nil {
		fmt.Printf("Warning: failed to save selected environment: %v\n", err)
	}

	return env, nil
}

// PromptEnvironmentSelection shows an interactive prompt for the user to select an environment
func PromptEnvironmentSelection(projectConfig *config.Config) (*config.Environment, error) {
	if len(projectConfig.Environments) == 0 {
		return nil, fmt.Errorf("no environments configured in %s", config.ConfigFileName)
	}

	type envOption struct {
		Label string
		Env   *config.Environment
	}

	options := make([]envOption, len(projectConfig.Environments))
	for i := range projectConfig.Environments {
		env := &projectConfig.Environments[i]
		options[i] = envOption{
			Label: fmt.Sprintf("%s (%s)", env.Alias, env.APIURL),
			Env:   env,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select an environment",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("environment selection cancelled: %w", err)
	}

	return options[index].Env, nil
}

// Roles are the account kinds offered by the role prompt, in display order
var Roles = []string{navigation.RoleClient, navigation.RoleDoctor, navigation.RoleAdmin}

// PromptRole asks which kind of account to sign in with. The last used role
// is preselected.
func PromptRole(last string) (string, error) {
	cursor := 0
	for i, role := range Roles {
		if role == last {
			cursor = i
		}
	}

	prompt := promptui.Select{
		Label:     "Sign in as",
		Items:     Roles,
		CursorPos: cursor,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("role selection cancelled: %w", err)
	}
	return Roles[index], nil
}

// GetEnvironmentByURLOrAlias finds an environment by API URL or alias
func GetEnvironmentByURLOrAlias(cfg *config.Config, urlOrAlias string) (*config.Environment, error) {
	if env, err := cfg.GetEnvironmentByURL(urlOrAlias); err == nil {
		return env, nil
	}
	if env, err := cfg.GetEnvironmentByAlias(urlOrAlias); err == nil {
		return env, nil
	}
	return nil, fmt.Errorf("environment with API URL or alias '%s' not found", urlOrAlias)
}
