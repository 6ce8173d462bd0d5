// Package pipeline loads pipeline definition files.
//
// A definition is a YAML document declaring the trigger policy and the jobs
// of a pipeline:
//
//	name: ci
//	on:
//	  events: [push, pull_request]
//	  branches: [main]
//	jobs:
//	  - name: tests
//	    runs-on: ubuntu
//	    matrix:
//	      runtime-version: ["3.12", "3.13"]
//	    steps:
//	      - checkout: .
//	      - install-runtime:
//	      - install-dependencies: requirements.txt
//	      - run: pytest
//
// Jobs are a sequence and matrix dimensions preserve document order, so the
// cell enumeration order of a run is fixed by the file.
package pipeline
