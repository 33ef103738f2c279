package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name RemoteStore --dir ../domain/fixture --output domain/fixture --outpkg fixturemock --filename remote_store_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/syncrun --output domain/syncrun --outpkg syncrunmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/rawdata --output domain/rawdata --outpkg rawdatamock --filename repository_mock.go
