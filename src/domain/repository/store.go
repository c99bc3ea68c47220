package repository

// Store bundles the repositories of one storage backend.
type Store struct {
	Events         ChangeEventRepository
	Specifications SpecificationRepository
	DataSets       TestDataSetRepository
	Artifacts      TestArtifactRepository
	ReviewItems    ReviewItemRepository
	DeadLetters    DeadLetterRepository
	Warnings       PipelineWarningRepository
}
