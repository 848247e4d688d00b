package models

// Installation operations.
const (
	OperationInstall   = "install"
	OperationUpgrade   = "upgrade"
	OperationUninstall = "uninstall"
)

// InstallationStatus is the cluster-verified state of a provider's operator stack.
type InstallationStatus struct {
	Installed       bool   `json:"installed"`
	CRDFound        bool   `json:"crdFound"`
	OperatorRunning bool   `json:"operatorRunning"`
	Message         string `json:"message,omitempty"`
}

// StepResult is the outcome of one package-manager invocation.
type StepResult struct {
	Step    string `json:"step"`
	Success bool   `json:"success"`
	Stdout  string `json:"stdout,omitempty"`
	Stderr  string `json:"stderr,omitempty"`
}

// InstallationOutcome is the result of one orchestrator run for a provider.
type InstallationOutcome struct {
	ProviderID       string             `json:"providerId"`
	Operation        string             `json:"operation"`
	AlreadyInstalled bool               `json:"alreadyInstalled"`
	Success          bool               `json:"success"`
	Results          []StepResult       `json:"results"`
	Error            string             `json:"error,omitempty"`
	Warnings         []string           `json:"warnings,omitempty"`
	Status           InstallationStatus `json:"status"`
}
