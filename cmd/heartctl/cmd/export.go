package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/security"
	"github.com/cenk2025/hardpath/internal/storage"
)

var (
	exportPatient string
	exportOut     string
	exportEncrypt bool
)

// PatientExport is the full record of one patient.
type PatientExport struct {
	ExportedAt    time.Time                    `json:"exported_at"`
	Patient       *models.User                 `json:"patient"`
	Consent       *models.Consent              `json:"consent,omitempty"`
	Metrics       []*models.DailyMetric        `json:"metrics"`
	Symptoms      []*models.SymptomReport      `json:"symptoms"`
	BloodPressure []*models.BloodPressureLog   `json:"blood_pressure"`
	Medications   []*models.Medication         `json:"medications"`
	Program       *models.RehabProgram         `json:"program,omitempty"`
	Sessions      []*models.Session            `json:"sessions"`
	Wearables     []*models.WearableConnection `json:"wearables"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a patient's full record as JSON",
	Long: `Export everything stored for one patient as a JSON document.

An --out path ending in .enc, or the --encrypt flag, writes the file
encrypted with HEARTPATH_MASTER_KEY (AES-256-GCM, PBKDF2 key).
Without --out the JSON goes to stdout.

Examples:
  heartctl export --patient 3f2a... --out patient.json
  heartctl export --patient 3f2a... --out patient.json.enc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		export, err := buildExport(context.Background(), store, exportPatient, time.Now().UTC())
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(export, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal export: %w", err)
		}

		if exportOut == "" {
			fmt.Println(string(data))
			return nil
		}
		path, err := writeExport(exportOut, data, exportEncrypt)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %s to %s\n", export.Patient.Email, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportPatient, "patient", "", "patient id (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file; .enc suffix encrypts")
	exportCmd.Flags().BoolVar(&exportEncrypt, "encrypt", false, "encrypt the output file")
	exportCmd.MarkFlagRequired("patient")
}

// buildExport gathers every record of patientID.
func buildExport(ctx context.Context, store storage.Storage, patientID string, now time.Time) (*PatientExport, error) {
	patient, err := store.Users().GetByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if patient == nil || patient.Role != models.RolePatient {
		return nil, fmt.Errorf("patient '%s' not found", patientID)
	}

	out := &PatientExport{ExportedAt: now, Patient: patient}
	var since time.Time

	if out.Consent, err = store.Consents().Get(ctx, patientID); err != nil {
		return nil, fmt.Errorf("get consent: %w", err)
	}
	if out.Metrics, err = store.Metrics().ListByPatient(ctx, patientID, since); err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	if out.Symptoms, err = store.Symptoms().ListByPatient(ctx, patientID, since); err != nil {
		return nil, fmt.Errorf("list symptoms: %w", err)
	}
	if out.BloodPressure, err = store.BloodPressure().ListByPatient(ctx, patientID, since); err != nil {
		return nil, fmt.Errorf("list blood pressure: %w", err)
	}
	if out.Medications, err = store.Medications().ListByPatient(ctx, patientID); err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	if out.Program, err = store.Programs().GetAssigned(ctx, patientID); err != nil {
		return nil, fmt.Errorf("get program: %w", err)
	}
	if out.Sessions, err = store.Programs().ListSessions(ctx, patientID, "", ""); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if out.Wearables, err = store.Wearables().ListByPatient(ctx, patientID); err != nil {
		return nil, fmt.Errorf("list wearables: %w", err)
	}
	return out, nil
}

// writeExport writes data to path, encrypting when asked or when path has
// the .enc suffix. It returns the path written.
func writeExport(path string, data []byte, encrypt bool) (string, error) {
	if encrypt || strings.HasSuffix(path, security.EncryptedFileSuffix) {
		key, err := masterKey()
		if err != nil {
			return "", err
		}
		written, err := security.WriteEncryptedFile(path, data, key)
		if err != nil {
			return "", fmt.Errorf("write encrypted export: %w", err)
		}
		return written, nil
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
