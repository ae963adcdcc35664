package config

import (
	"fmt"

	"github.com/vk/haloprov/internal/model"
)

// Built-in pipeline wiring. This mirrors the production halo-fitting setup
// on the shared cluster filesystem; a configuration file overrides any of
// it per run.
const (
	defaultSourceDir    = "/cosma5/data/durham/halo_fitting/pipeline"
	defaultEnvironment  = "halofit"
	defaultRescalingDir = "rescaling_code"
	defaultResultDest   = "FastHodFitting/fitting_smoothed_curves"
)

// Default returns the built-in configuration with the identity's indices
// already substituted into the patch rules.
func Default(identity model.RunIdentity) *Model {
	cosmo := fmt.Sprintf("%d", identity.Cosmology)
	phase := fmt.Sprintf("%d", identity.Phase)

	return &Model{
		Pipeline: Pipeline{
			SourceDir:     defaultSourceDir,
			Environment:   defaultEnvironment,
			RescalingDir:  defaultRescalingDir,
			StageSuffixes: []string{".py", ".csv", ".dat", ".sh"},
			LaunchScripts: []string{
				"launch_fit.sh",
				"launch_fit_process.sh",
				"launch_hod_testing.sh",
			},
			PrepScripts: []string{
				"rescaling_code/xi_rescaling_factor.py",
				"rescaling_code/target_number_density.py",
			},
			ResultFiles: []string{
				"cosmology_rescaling_factor_xi_zel_8.txt",
				"target_num_den_rescaled.txt",
			},
			ResultDest: defaultResultDest,
		},
		Patches: []model.PatchRule{
			{
				File:    "rescaling_code/xi_rescaling_factor.py",
				Find:    "cosmo_number = 0",
				Replace: "cosmo_number = " + cosmo,
			},
			{
				File:    "rescaling_code/target_number_density.py",
				Find:    "cosmo_number = 0",
				Replace: "cosmo_number = " + cosmo,
			},
			{
				File:    "tracer_snapshot.py",
				Find:    "cosmo = 0",
				Replace: "cosmo = " + cosmo,
			},
			{
				File:    "tracer_snapshot.py",
				Find:    "ph = 0",
				Replace: "ph = " + phase,
			},
			{
				File:    "tracer_snapshot_unresolved.py",
				Find:    "cosmo = 0",
				Replace: "cosmo = " + cosmo,
			},
			{
				File:    "tracer_snapshot_unresolved.py",
				Find:    "ph = 0",
				Replace: "ph = " + phase,
			},
		},
		Repositories: []model.Repository{
			{Name: "FastHodFitting", URL: "https://github.com/amjsmith/FastHodFitting"},
			{Name: "shared_code", URL: "https://github.com/amjsmith/shared_code"},
		},
		Jobs: []model.Job{
			{Name: "fit", Script: "launch_fit.sh", Enabled: true},
			{
				Name:    "fit_process",
				Script:  "launch_fit_process.sh",
				After:   "fit",
				When:    model.AfterAny,
				Enabled: true,
			},
			// Kept as an inactive extension point: the final HOD testing
			// stage has never been part of the submitted chain.
			{
				Name:    "hod_testing",
				Script:  "launch_hod_testing.sh",
				After:   "fit_process",
				When:    model.AfterAny,
				Enabled: false,
			},
		},
	}
}
