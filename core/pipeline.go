package core

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// NewPipeline assembles the render pass and the fixed function graphics
// pipeline drawing into images of the given format. Shader modules only
// live until the pipeline is created.
func NewPipeline(device vk.Device, format vk.Format, shaders ShaderSource) (*PipelineContext, error) {
	p := &PipelineContext{device: device}

	var modules Teardown
	defer modules.Run()

	stages := make([]vk.PipelineShaderStageCreateInfo, 0, 2)
	for _, shader := range []struct {
		kind  ShaderType
		stage vk.ShaderStageFlagBits
	}{
		{VertexShaderType, vk.ShaderStageVertexBit},
		{FragmentShaderType, vk.ShaderStageFragmentBit},
	} {
		module, err := newShaderModule(device, shaders, shader.kind)
		if err != nil {
			return nil, err
		}
		modules.Push(shader.kind.String()+" shader module", func() {
			vk.DestroyShaderModule(device, module, nil)
		})
		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  shader.stage,
			Module: module,
			PName:  "main\x00",
		})
	}

	for _, create := range []func() error{
		func() error { return p.createRenderPass(format) },
		p.createPipelineLayout,
		p.createPipelineCache,
		func() error { return p.createPipeline(stages) },
	} {
		if err := create(); err != nil {
			p.Destroy()
			return nil, err
		}
	}

	log.WithField("format", format).Info("graphics pipeline created")
	return p, nil
}

// PipelineContext owns the render pass and the graphics pipeline
type PipelineContext struct {
	device vk.Device

	renderPass     vk.RenderPass
	pipelineLayout vk.PipelineLayout
	pipelineCache  vk.PipelineCache
	pipeline       vk.Pipeline
}

func newShaderModule(device vk.Device, shaders ShaderSource, kind ShaderType) (vk.ShaderModule, error) {
	code, err := shaders.LoadCompiledShader(kind)
	if err != nil {
		return nil, err
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, illegalState("%s shader bytecode has invalid size %d", kind, len(code))
	}

	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    SliceUint32(code),
	}

	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(device, &smci, nil, &module)); err != nil {
		return nil, fmt.Errorf("vk.CreateShaderModule(%s): %s", kind, err.Error())
	}
	return module, nil
}

func (p *PipelineContext) createRenderPass(format vk.Format) error {
	attachments := []vk.AttachmentDescription{{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := vkCall("vk.CreateRenderPass", vk.CreateRenderPass(p.device, &rpci, nil, &renderPass)); err != nil {
		return err
	}
	p.renderPass = renderPass
	return nil
}

func (p *PipelineContext) createPipelineLayout() error {
	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}

	var pipelineLayout vk.PipelineLayout
	if err := vkCall("vk.CreatePipelineLayout", vk.CreatePipelineLayout(p.device, &plci, nil, &pipelineLayout)); err != nil {
		return err
	}
	p.pipelineLayout = pipelineLayout
	return nil
}

func (p *PipelineContext) createPipelineCache() error {
	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}

	var pipelineCache vk.PipelineCache
	if err := vkCall("vk.CreatePipelineCache", vk.CreatePipelineCache(p.device, &pcci, nil, &pipelineCache)); err != nil {
		return err
	}
	p.pipelineCache = pipelineCache
	return nil
}

func (p *PipelineContext) createPipeline(stages []vk.PipelineShaderStageCreateInfo) error {
	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vk.False,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             vk.PolygonModeFill,
			CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:               vk.FrontFaceCounterClockwise,
			DepthBiasEnable:         vk.False,
			LineWidth:               1.0,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
			SampleShadingEnable:  vk.False,
			MinSampleShading:     1.0,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: vk.ColorComponentFlags(
					vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit,
				),
				BlendEnable: vk.False,
			}},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateViewport,
				vk.DynamicStateScissor,
			},
		},
		Layout:     p.pipelineLayout,
		RenderPass: p.renderPass,
		Subpass:    0,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := vkCall("vk.CreateGraphicsPipelines", vk.CreateGraphicsPipelines(p.device, p.pipelineCache, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return err
	}
	p.pipeline = pipelines[0]
	return nil
}

// RenderPass returns the single subpass render pass
func (p *PipelineContext) RenderPass() vk.RenderPass {
	return p.renderPass
}

// Handle returns the graphics pipeline
func (p *PipelineContext) Handle() vk.Pipeline {
	return p.pipeline
}

// Destroy destroys the pipeline and what it was built from
func (p *PipelineContext) Destroy() {
	if p.pipeline != nil {
		vk.DestroyPipeline(p.device, p.pipeline, nil)
	}
	if p.pipelineCache != nil {
		vk.DestroyPipelineCache(p.device, p.pipelineCache, nil)
	}
	if p.pipelineLayout != nil {
		vk.DestroyPipelineLayout(p.device, p.pipelineLayout, nil)
	}
	if p.renderPass != nil {
		vk.DestroyRenderPass(p.device, p.renderPass, nil)
	}
	p.pipeline, p.pipelineCache, p.pipelineLayout, p.renderPass = nil, nil, nil, nil
}
